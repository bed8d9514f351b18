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

package storage

import (
	"context"
	"sync"

	"github.com/capturekit/capturekit/pkg/util/conc"
	"github.com/capturekit/capturekit/pkg/util/merr"
)

// Router dispatches uris to the store registered for their scheme.
// Concurrent reads of one uri share a single store read, which runs until
// the store answers even if the caller that started it gives up.
type Router struct {
	mu     sync.RWMutex
	stores map[string]ReadWriter
	reads  conc.Singleflight[[]byte]
}

var _ ReadWriter = (*Router)(nil)

func NewRouter() *Router {
	return &Router{stores: make(map[string]ReadWriter)}
}

// Register serves scheme with store, replacing any previous one.
func (r *Router) Register(scheme string, store ReadWriter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[scheme] = store
}

func (r *Router) route(uri string) (ReadWriter, error) {
	loc, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	store, ok := r.stores[loc.Scheme]
	if !ok {
		return nil, merr.WrapErrIoUnsupported(loc.Scheme)
	}
	return store, nil
}

func (r *Router) Read(ctx context.Context, uri string) ([]byte, error) {
	store, err := r.route(uri)
	if err != nil {
		return nil, err
	}
	// the shared read is not bound to whichever caller started it,
	// each caller stops waiting on its own ctx
	shared := context.WithoutCancel(ctx)
	select {
	case res := <-r.reads.DoChan(uri, func() ([]byte, error) {
		return store.Read(shared, uri)
	}):
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Write stores data, reads started afterwards see the new content.
func (r *Router) Write(ctx context.Context, uri string, data []byte) error {
	store, err := r.route(uri)
	if err != nil {
		return err
	}
	r.reads.Forget(uri)
	return store.Write(ctx, uri, data)
}
