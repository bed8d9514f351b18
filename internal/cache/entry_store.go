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
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"go.uber.org/zap"

	"github.com/capturekit/capturekit/pkg/log"
	"github.com/capturekit/capturekit/pkg/metrics"
	"github.com/capturekit/capturekit/pkg/util/merr"
)

type (
	// Weigher returns the weight of a value in KB.
	Weigher[V any] func(value V) int64
	// ReleaseHook receives an entry once the store gives it up,
	// it runs with the store locked and must not call back into the cache.
	ReleaseHook[K comparable, V any] func(key K, value V)
)

type entry[V any] struct {
	value  V
	weight int64
}

// EntryStore is an LRU map bounded by the total weight of its values.
type EntryStore[K comparable, V any] struct {
	mu  sync.Mutex
	lru *simplelru.LRU[K, *entry[V]]

	name      string
	capacity  int64
	minWeight int64
	weight    int64
	weigher   Weigher[V]
	release   ReleaseHook[K, V]

	// reason of the removal in progress, read by onEvict
	reason string
}

// NewEntryStore creates a store holding at most capacity KB,
// every value weighs at least minWeight KB.
func NewEntryStore[K comparable, V any](name string, capacity, minWeight int64, weigher Weigher[V], release ReleaseHook[K, V]) (*EntryStore[K, V], error) {
	if capacity <= 0 {
		return nil, merr.WrapErrParameterInvalidMsg("positive capacity, got %d", capacity)
	}
	if minWeight <= 0 {
		return nil, merr.WrapErrParameterInvalidMsg("positive min weight, got %d", minWeight)
	}
	if weigher == nil {
		return nil, merr.WrapErrParameterInvalidMsg("weigher of %s is nil", name)
	}
	s := &EntryStore[K, V]{
		name:      name,
		capacity:  capacity,
		minWeight: minWeight,
		weigher:   weigher,
		release:   release,
		reason:    metrics.EvictedLabel,
	}
	// weight is the real bound, the entry count can never exceed capacity/minWeight
	lru, err := simplelru.NewLRU[K, *entry[V]](int(capacity/minWeight)+1, s.onEvict)
	if err != nil {
		return nil, err
	}
	s.lru = lru
	return s, nil
}

// Get returns the value of key and marks it most recently used.
func (s *EntryStore[K, V]) Get(key K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lru.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Peek reports whether key is resident, the LRU order is left untouched.
func (s *EntryStore[K, V]) Peek(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Contains(key)
}

// Put inserts or replaces the value of key, evicting from the LRU end until
// the total weight fits. A value heavier than the whole capacity is refused,
// it only drops an older value of the same key.
func (s *EntryStore[K, V]) Put(key K, value V) bool {
	w := s.weigher(value)
	if w < s.minWeight {
		w = s.minWeight
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if w > s.capacity {
		log.Warn("entry heavier than cache capacity, not cached",
			log.FieldComponent(s.name),
			log.FieldKey(key),
			zap.Int64("weightKB", w),
			zap.Int64("capacityKB", s.capacity))
		s.removeLocked(key, metrics.InvalidatedLabel)
		return false
	}

	// replacing is not an eviction, the old value is simply dropped
	if old, ok := s.lru.Peek(key); ok {
		s.weight -= old.weight
	}
	s.weight += w
	s.lru.Add(key, &entry[V]{value: value, weight: w})

	for s.weight > s.capacity {
		s.reason = metrics.EvictedLabel
		if _, _, ok := s.lru.RemoveOldest(); !ok {
			break
		}
	}
	s.updateMetrics()
	return true
}

// Invalidate removes key and runs the release hook for it,
// returns false if the key was not resident.
func (s *EntryStore[K, V]) Invalidate(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(key, metrics.InvalidatedLabel)
}

// Purge releases every entry, least recently used first.
func (s *EntryStore[K, V]) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reason = metrics.PurgedLabel
	defer func() { s.reason = metrics.EvictedLabel }()
	for {
		if _, _, ok := s.lru.RemoveOldest(); !ok {
			break
		}
	}
	s.updateMetrics()
}

func (s *EntryStore[K, V]) removeLocked(key K, reason string) bool {
	s.reason = reason
	defer func() { s.reason = metrics.EvictedLabel }()
	ok := s.lru.Remove(key)
	s.updateMetrics()
	return ok
}

// onEvict is called by the lru with s.mu held, after the mapping is gone.
func (s *EntryStore[K, V]) onEvict(key K, e *entry[V]) {
	s.weight -= e.weight
	metrics.CacheReleaseTotal.WithLabelValues(s.name, s.reason).Inc()
	log.Debug("cache entry released",
		log.FieldComponent(s.name),
		log.FieldKey(key),
		zap.String("reason", s.reason),
		zap.Int64("weightKB", e.weight))

	if s.release == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("release hook panicked",
				log.FieldComponent(s.name),
				log.FieldKey(key),
				zap.Any("panic", r))
			panic(r)
		}
	}()
	s.release(key, e.value)
}

func (s *EntryStore[K, V]) updateMetrics() {
	metrics.CacheWeightKB.WithLabelValues(s.name).Set(float64(s.weight))
	metrics.CacheEntryNum.WithLabelValues(s.name).Set(float64(s.lru.Len()))
}

// Len returns the number of resident entries.
func (s *EntryStore[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

// Weight returns the total weight of resident entries in KB.
func (s *EntryStore[K, V]) Weight() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.weight
}

func (s *EntryStore[K, V]) Capacity() int64 {
	return s.capacity
}

// Keys returns resident keys from the least to the most recently used.
func (s *EntryStore[K, V]) Keys() []K {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Keys()
}
