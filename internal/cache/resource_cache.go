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

package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/capturekit/capturekit/pkg/metrics"
	"github.com/capturekit/capturekit/pkg/util/merr"
)

// ResourceCache serves values from memory and loads missing ones through
// a bounded worker pool, each key is loaded at most once at a time.
type ResourceCache[K comparable, V any] struct {
	name     string
	store    *EntryStore[K, V]
	pool     *WorkerPool[K, V]
	limit    int
	// closeExecutor is set when the cache owns its executor
	closeExecutor func()
	closeOnce     sync.Once
}

// Get looks key up. On a hit onSuccess runs on the calling goroutine and
// Get returns true. On a miss the callbacks run later on the executor,
// after the shared load finishes.
func (c *ResourceCache[K, V]) Get(key K, onSuccess func(V), onError func(error)) bool {
	if v, ok := c.store.Get(key); ok {
		metrics.CacheHitTotal.WithLabelValues(c.name).Inc()
		if onSuccess != nil {
			onSuccess(v)
		}
		return true
	}
	metrics.CacheMissTotal.WithLabelValues(c.name).Inc()
	c.pool.Request(key, onSuccess, onError)
	return false
}

type loadResult[V any] struct {
	value V
	err   error
}

// Load blocks until the value of key is available.
// Giving up on ctx does not cancel the shared load.
func (c *ResourceCache[K, V]) Load(ctx context.Context, key K) (V, error) {
	ch := make(chan loadResult[V], 1)
	c.Get(key,
		func(v V) { ch <- loadResult[V]{value: v} },
		func(err error) { ch <- loadResult[V]{err: err} },
	)
	select {
	case res := <-ch:
		return res.value, res.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Peek reports whether key is resident without touching the LRU order.
func (c *ResourceCache[K, V]) Peek(key K) bool {
	return c.store.Peek(key)
}

// Invalidate drops key. A load running for it still answers its current
// waiters but its result is not cached, later requests load again.
func (c *ResourceCache[K, V]) Invalidate(key K) bool {
	return c.pool.Invalidate(key)
}

// Cancel aborts the load of key, its waiters get ErrCanceled.
func (c *ResourceCache[K, V]) Cancel(key K) bool {
	return c.pool.Cancel(key)
}

// Purge drops every resident value.
func (c *ResourceCache[K, V]) Purge() {
	c.pool.Purge()
}

// Warm loads keys with the concurrency of the cache and returns the
// combined error of the failed ones.
func (c *ResourceCache[K, V]) Warm(ctx context.Context, keys ...K) error {
	var (
		mu   sync.Mutex
		errs []error
	)
	g := new(errgroup.Group)
	g.SetLimit(c.limit)
	for _, key := range keys {
		if c.store.Peek(key) {
			continue
		}
		g.Go(func() error {
			if _, err := c.Load(ctx, key); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()
	return merr.Combine(errs...)
}

// Len returns the number of resident entries.
func (c *ResourceCache[K, V]) Len() int {
	return c.store.Len()
}

// Weight returns the resident weight in KB.
func (c *ResourceCache[K, V]) Weight() int64 {
	return c.store.Weight()
}

// Capacity returns the weight bound in KB.
func (c *ResourceCache[K, V]) Capacity() int64 {
	return c.store.Capacity()
}

func (c *ResourceCache[K, V]) Name() string {
	return c.name
}

// Close fails pending waiters with ErrServiceClosed and releases every entry.
func (c *ResourceCache[K, V]) Close() {
	c.closeOnce.Do(func() {
		c.pool.Close()
		c.store.Purge()
		if c.closeExecutor != nil {
			c.closeExecutor()
		}
		metrics.CleanupCacheMetrics(c.name)
	})
}
