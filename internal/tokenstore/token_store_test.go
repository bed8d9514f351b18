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
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/capturekit/capturekit/pkg/metrics"
	"github.com/capturekit/capturekit/pkg/util/merr"
)

type TokenStoreSuite struct {
	suite.Suite
}

func (s *TokenStoreSuite) TestStoreFetch() {
	store := NewTokenStore(0, 0)
	data := []byte("jpeg bytes")

	token := store.Store(data)
	s.NotEmpty(token.String())

	got, err := store.Fetch(token)
	s.NoError(err)
	s.Equal(data, got)

	// fetch does not consume
	got, err = store.Fetch(token)
	s.NoError(err)
	s.Equal(data, got)
	s.Equal(1, store.Len())
}

func (s *TokenStoreSuite) TestTokensAreUnique() {
	store := NewTokenStore(0, 0)
	a := store.Store([]byte("a"))
	b := store.Store([]byte("a"))
	s.NotEqual(a, b)
}

func (s *TokenStoreSuite) TestRemove() {
	store := NewTokenStore(0, 0)
	token := store.Store([]byte("data"))

	store.Remove(token)
	_, err := store.Fetch(token)
	s.ErrorIs(err, merr.ErrTokenNotFound)

	// idempotent
	store.Remove(token)
	store.Remove(Token("never-issued"))
	s.Equal(0, store.Len())
}

func (s *TokenStoreSuite) TestFetchAndRemove() {
	store := NewTokenStore(0, 0)
	token := store.Store([]byte("data"))

	got, err := store.FetchAndRemove(token)
	s.NoError(err)
	s.Equal([]byte("data"), got)

	_, err = store.FetchAndRemove(token)
	s.ErrorIs(err, merr.ErrTokenNotFound)
}

func (s *TokenStoreSuite) TestFetchAndRemoveOnce() {
	store := NewTokenStore(0, 0)
	token := store.Store([]byte("data"))

	const n = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := store.FetchAndRemove(token); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(1, wins)
}

func (s *TokenStoreSuite) TestExpiryReportsLeak() {
	leaked := testutil.ToFloat64(metrics.TokenStoreLeakedTotal)
	store := NewTokenStore(10*time.Millisecond, 5*time.Millisecond)

	consumed := store.Store([]byte("consumed"))
	store.Store([]byte("forgotten"))
	_, err := store.FetchAndRemove(consumed)
	s.NoError(err)

	s.Eventually(func() bool {
		return testutil.ToFloat64(metrics.TokenStoreLeakedTotal) == leaked+1
	}, time.Second, 5*time.Millisecond)
	s.Equal(0, store.Len())
}

func (s *TokenStoreSuite) TestExpiredTokenNotFound() {
	store := NewTokenStore(10*time.Millisecond, time.Hour)
	token := store.Store([]byte("data"))
	time.Sleep(20 * time.Millisecond)
	_, err := store.Fetch(token)
	s.ErrorIs(err, merr.ErrTokenNotFound)
}

func TestTokenStore(t *testing.T) {
	suite.Run(t, new(TokenStoreSuite))
}
