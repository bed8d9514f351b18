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

package hardware

import (
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
)

// MemoryUsage is one sample of process visible memory.
type MemoryUsage struct {
	UsedBytes  uint64
	TotalBytes uint64
}

// Ratio returns used over total, 1 when total is unknown.
func (u MemoryUsage) Ratio() float64 {
	if u.TotalBytes == 0 {
		return 1.0
	}
	return float64(u.UsedBytes) / float64(u.TotalBytes)
}

func (u MemoryUsage) String() string {
	return fmt.Sprintf("used: %.2fMB, total: %.2fMB",
		float64(u.UsedBytes)/1024/1024, float64(u.TotalBytes)/1024/1024)
}

func sampleMemory() MemoryUsage {
	return MemoryUsage{UsedBytes: GetUsedMemoryCount(), TotalBytes: GetMemoryCount()}
}

type WatcherOption func(*PressureWatcher)

// WithUsageSampler replaces the memory sampler.
func WithUsageSampler(sample func() MemoryUsage) WatcherOption {
	return func(w *PressureWatcher) {
		w.sample = sample
	}
}

type subscription struct {
	threshold float64
	cooldown  time.Duration
	notify    func(MemoryUsage)
	quietTill time.Time
}

// PressureWatcher samples memory usage periodically and notifies
// subscribers whose threshold is exceeded.
type PressureWatcher struct {
	mu     sync.Mutex
	subs   map[int]*subscription
	nextID int
	sample func() MemoryUsage

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewPressureWatcher(interval time.Duration, opts ...WatcherOption) *PressureWatcher {
	w := &PressureWatcher{
		subs:   make(map[int]*subscription),
		sample: sampleMemory,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.run(interval)
	return w
}

// Subscribe calls notify whenever the used ratio goes above threshold,
// at most once per cooldown. notify runs on the sampling goroutine.
// The returned func cancels the subscription.
func (w *PressureWatcher) Subscribe(threshold float64, cooldown time.Duration, notify func(MemoryUsage)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.nextID
	w.nextID++
	w.subs[id] = &subscription{threshold: threshold, cooldown: cooldown, notify: notify}
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.subs, id)
	}
}

func (w *PressureWatcher) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer func() {
		ticker.Stop()
		close(w.done)
	}()
	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.check(w.sample(), time.Now())
		}
	}
}

func (w *PressureWatcher) check(usage MemoryUsage, now time.Time) {
	w.mu.Lock()
	due := lo.Filter(lo.Values(w.subs), func(s *subscription, _ int) bool {
		return !now.Before(s.quietTill) && usage.Ratio() > s.threshold
	})
	for _, s := range due {
		s.quietTill = now.Add(s.cooldown)
	}
	w.mu.Unlock()

	for _, s := range due {
		s.notify(usage)
	}
}

// Close stops sampling and waits for the sampling goroutine to exit.
func (w *PressureWatcher) Close() {
	w.stopOnce.Do(func() {
		close(w.stop)
	})
	<-w.done
}
