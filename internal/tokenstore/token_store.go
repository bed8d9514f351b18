// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tokenstore

import (
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/capturekit/capturekit/pkg/log"
	"github.com/capturekit/capturekit/pkg/metrics"
	"github.com/capturekit/capturekit/pkg/util/merr"
)

// Token addresses a buffer parked in a TokenStore.
type Token string

func (t Token) String() string {
	return string(t)
}

type tokenEntry struct {
	data    []byte
	removed atomic.Bool
}

// TokenStore parks byte buffers under opaque tokens so that only the token
// has to cross a size limited boundary.
type TokenStore struct {
	// serializes fetch-then-delete so a token is consumed once
	mu     sync.Mutex
	items  *gocache.Cache
	expiry time.Duration
}

// NewTokenStore creates a store. With a positive expiry, tokens nobody
// consumed are dropped every reapInterval and reported as leaks.
func NewTokenStore(expiry, reapInterval time.Duration) *TokenStore {
	defaultExpiration := gocache.NoExpiration
	cleanupInterval := time.Duration(0)
	if expiry > 0 {
		defaultExpiration = expiry
		cleanupInterval = reapInterval
	}
	s := &TokenStore{
		items:  gocache.New(defaultExpiration, cleanupInterval),
		expiry: expiry,
	}
	s.items.OnEvicted(s.onEvicted)
	return s
}

func (s *TokenStore) onEvicted(token string, item interface{}) {
	metrics.TokenStoreOutstandingNum.Dec()
	entry, ok := item.(*tokenEntry)
	if !ok || entry.removed.Load() {
		return
	}
	metrics.TokenStoreLeakedTotal.Inc()
	log.Warn("token expired before it was consumed",
		log.FieldToken(token),
		zap.Int("size", len(entry.data)),
		zap.Duration("expiry", s.expiry))
}

// Store keeps data and returns a fresh token for it.
func (s *TokenStore) Store(data []byte) Token {
	token := uuid.NewString()
	s.items.SetDefault(token, &tokenEntry{data: data})
	metrics.TokenStoreOutstandingNum.Inc()
	return Token(token)
}

// Fetch returns the data of token and leaves it in place.
func (s *TokenStore) Fetch(token Token) ([]byte, error) {
	item, ok := s.items.Get(string(token))
	if !ok {
		return nil, merr.WrapErrTokenNotFound(token.String())
	}
	return item.(*tokenEntry).data, nil
}

// Remove drops token, removing an absent token does nothing.
func (s *TokenStore) Remove(token Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(token)
}

func (s *TokenStore) removeLocked(token Token) *tokenEntry {
	item, ok := s.items.Get(string(token))
	if !ok {
		return nil
	}
	entry := item.(*tokenEntry)
	entry.removed.Store(true)
	s.items.Delete(string(token))
	return entry
}

// FetchAndRemove returns the data of token and drops it,
// a token is handed out at most once.
func (s *TokenStore) FetchAndRemove(token Token) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.removeLocked(token)
	if entry == nil {
		return nil, merr.WrapErrTokenNotFound(token.String())
	}
	return entry.data, nil
}

// Len returns the number of outstanding tokens, expired ones included
// until they are reaped.
func (s *TokenStore) Len() int {
	return s.items.ItemCount()
}
