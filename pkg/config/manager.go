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

package config

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

type snapshot struct {
	source Source
	values map[string]string
}

// Manager answers lookups from source snapshots ordered by priority.
// Overlays set by Set shadow every source.
type Manager struct {
	mu        sync.RWMutex
	snapshots []snapshot
	overlays  map[string]string
}

// NewManager loads every source, the first failing one aborts.
func NewManager(sources ...Source) (*Manager, error) {
	m := &Manager{overlays: make(map[string]string)}
	for _, s := range sources {
		if err := m.AddSource(s); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// AddSource loads source, a second source with the same name is rejected.
func (m *Manager) AddSource(s Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lo.ContainsBy(m.snapshots, func(snap snapshot) bool { return snap.source.Name() == s.Name() }) {
		return errors.Newf("duplicate config source %s", s.Name())
	}
	values, err := s.Load()
	if err != nil {
		return errors.Wrapf(err, "load config source %s", s.Name())
	}
	m.snapshots = append(m.snapshots, snapshot{source: s, values: values})
	sort.SliceStable(m.snapshots, func(i, j int) bool {
		return m.snapshots[i].source.Priority() < m.snapshots[j].source.Priority()
	})
	return nil
}

// Get returns the effective value of key.
func (m *Manager) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	k := normalizeKey(key)
	if v, ok := m.overlays[k]; ok {
		return v, nil
	}
	for _, snap := range m.snapshots {
		if v, ok := snap.values[k]; ok {
			return v, nil
		}
	}
	return "", errors.Wrap(ErrKeyNotFound, key)
}

// All returns every normalized key with its effective value.
func (m *Manager) All() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string)
	for i := len(m.snapshots) - 1; i >= 0; i-- {
		for k, v := range m.snapshots[i].values {
			out[k] = v
		}
	}
	for k, v := range m.overlays {
		out[k] = v
	}
	return out
}

// Sources returns source names, highest priority first.
func (m *Manager) Sources() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.Map(m.snapshots, func(snap snapshot, _ int) string { return snap.source.Name() })
}

func (m *Manager) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overlays[normalizeKey(key)] = value
}

func (m *Manager) Reset(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.overlays, normalizeKey(key))
}
