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
	"github.com/capturekit/capturekit/pkg/util/merr"
)

const (
	defaultMaxRunning = 3
	defaultMinWeight  = 1
)

// CacheBuilder collects the settings of a ResourceCache.
type CacheBuilder[K comparable, V any] struct {
	name       string
	capacity   int64
	minWeight  int64
	weigher    Weigher[V]
	release    ReleaseHook[K, V]
	loader     Loader[K, V]
	maxRunning int
	maxQueue   int
	executor   Executor
}

func NewCacheBuilder[K comparable, V any]() *CacheBuilder[K, V] {
	return &CacheBuilder[K, V]{
		name:       "cache",
		minWeight:  defaultMinWeight,
		maxRunning: defaultMaxRunning,
		weigher:    func(V) int64 { return defaultMinWeight },
	}
}

// WithName sets the name used in logs and metrics.
func (b *CacheBuilder[K, V]) WithName(name string) *CacheBuilder[K, V] {
	b.name = name
	return b
}

// WithCapacity sets the weight bound in KB.
func (b *CacheBuilder[K, V]) WithCapacity(capacityKB int64) *CacheBuilder[K, V] {
	b.capacity = capacityKB
	return b
}

// WithMinWeight sets the least weight charged per entry, in KB.
func (b *CacheBuilder[K, V]) WithMinWeight(minWeightKB int64) *CacheBuilder[K, V] {
	b.minWeight = minWeightKB
	return b
}

func (b *CacheBuilder[K, V]) WithWeigher(weigher Weigher[V]) *CacheBuilder[K, V] {
	b.weigher = weigher
	return b
}

// WithReleaseHook sets the function receiving evicted and invalidated entries.
func (b *CacheBuilder[K, V]) WithReleaseHook(release ReleaseHook[K, V]) *CacheBuilder[K, V] {
	b.release = release
	return b
}

func (b *CacheBuilder[K, V]) WithLoader(loader Loader[K, V]) *CacheBuilder[K, V] {
	b.loader = loader
	return b
}

// WithMaxRunning bounds the loads running at once.
func (b *CacheBuilder[K, V]) WithMaxRunning(n int) *CacheBuilder[K, V] {
	b.maxRunning = n
	return b
}

// WithMaxQueue bounds the loads waiting for a worker, 0 means unbounded.
func (b *CacheBuilder[K, V]) WithMaxQueue(n int) *CacheBuilder[K, V] {
	b.maxQueue = n
	return b
}

// WithExecutor sets the callback context. Without one the cache runs a
// SerialExecutor of its own and closes it on Close.
func (b *CacheBuilder[K, V]) WithExecutor(executor Executor) *CacheBuilder[K, V] {
	b.executor = executor
	return b
}

func (b *CacheBuilder[K, V]) Build() (*ResourceCache[K, V], error) {
	if b.capacity <= 0 {
		return nil, merr.WrapErrParameterInvalidMsg("positive capacity, got %d", b.capacity)
	}
	store, err := NewEntryStore[K, V](b.name, b.capacity, b.minWeight, b.weigher, b.release)
	if err != nil {
		return nil, err
	}

	executor := b.executor
	var closeExecutor func()
	if executor == nil {
		serial := NewSerialExecutor()
		executor, closeExecutor = serial, serial.Close
	}

	pool, err := NewWorkerPool[K, V](b.name, store, b.loader, executor, b.maxRunning, b.maxQueue)
	if err != nil {
		if closeExecutor != nil {
			closeExecutor()
		}
		return nil, err
	}
	return &ResourceCache[K, V]{
		name:          b.name,
		store:         store,
		pool:          pool,
		limit:         b.maxRunning,
		closeExecutor: closeExecutor,
	}, nil
}
