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
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/capturekit/capturekit/pkg/log"
	"github.com/capturekit/capturekit/pkg/metrics"
	"github.com/capturekit/capturekit/pkg/util/conc"
	"github.com/capturekit/capturekit/pkg/util/merr"
)

// Loader produces the value of key, it should give up once ctx is done.
type Loader[K comparable, V any] func(ctx context.Context, key K) (V, error)

type waiter[V any] struct {
	onSuccess func(V)
	onError   func(error)
}

func (w waiter[V]) deliver(v V, err error) {
	if err != nil {
		if w.onError != nil {
			w.onError(err)
		}
		return
	}
	if w.onSuccess != nil {
		w.onSuccess(v)
	}
}

type loadState int

const (
	loadQueued loadState = iota
	loadRunning
)

// pendingLoad is the single in-flight load of a key.
type pendingLoad[K comparable, V any] struct {
	key     K
	state   loadState
	waiters []waiter[V]
	// next holds requests that arrived after the load was canceled or
	// invalidated, they get a fresh load once this one returns.
	next     []waiter[V]
	canceled bool
	stale    bool

	elem   *list.Element
	ctx    context.Context
	cancel context.CancelFunc
}

// WorkerPool runs at most limit loads at once and keeps one load per key,
// the others wait in FIFO order.
type WorkerPool[K comparable, V any] struct {
	mu sync.Mutex

	name     string
	store    *EntryStore[K, V]
	loader   Loader[K, V]
	executor Executor
	pool     *conc.Pool[struct{}]

	pending  map[K]*pendingLoad[K, V]
	queue    *list.List
	running  int
	limit    int
	maxQueue int
	closed   bool

	// raise rethrows a release hook panic caught while storing a load,
	// once the pool lock is released and the waiters are answered
	raise func(any)
}

// NewWorkerPool creates a pool storing successful loads into store.
// maxQueue of 0 leaves the queue unbounded.
func NewWorkerPool[K comparable, V any](name string, store *EntryStore[K, V], loader Loader[K, V], executor Executor, limit, maxQueue int) (*WorkerPool[K, V], error) {
	if limit <= 0 {
		return nil, merr.WrapErrParameterInvalidMsg("positive max running, got %d", limit)
	}
	if maxQueue < 0 {
		return nil, merr.WrapErrParameterInvalidMsg("non-negative max queue, got %d", maxQueue)
	}
	if loader == nil {
		return nil, merr.WrapErrParameterInvalidMsg("loader of %s is nil", name)
	}
	// a finishing worker still holds its goroutine for a moment after
	// handing its slot over, the spare half keeps Submit from blocking
	pool, err := conc.NewPool[struct{}](name, limit*2)
	if err != nil {
		return nil, err
	}
	return &WorkerPool[K, V]{
		name:     name,
		store:    store,
		loader:   loader,
		executor: executor,
		pool:     pool,
		pending:  make(map[K]*pendingLoad[K, V]),
		queue:    list.New(),
		limit:    limit,
		maxQueue: maxQueue,
		raise:    func(r any) { panic(r) },
	}, nil
}

// Request registers callbacks for key, joining the in-flight load if any.
func (p *WorkerPool[K, V]) Request(key K, onSuccess func(V), onError func(error)) {
	w := waiter[V]{onSuccess: onSuccess, onError: onError}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		// the executor may be gone already, answer on the caller
		w.deliver(zeroOf[V](), merr.WrapErrServiceClosed(p.name))
		return
	}

	if pl, ok := p.pending[key]; ok {
		if pl.canceled || pl.stale {
			pl.next = append(pl.next, w)
		} else {
			pl.waiters = append(pl.waiters, w)
		}
		p.mu.Unlock()
		return
	}

	// the load may have completed between the caller's miss and now
	if v, ok := p.store.Get(key); ok {
		p.mu.Unlock()
		p.dispatch([]waiter[V]{w}, v, nil)
		return
	}

	pl := &pendingLoad[K, V]{key: key, waiters: []waiter[V]{w}}
	if err := p.admitLocked(pl); err != nil {
		p.mu.Unlock()
		p.dispatch(pl.waiters, zeroOf[V](), err)
		return
	}
	p.mu.Unlock()
}

// admitLocked starts pl or queues it.
func (p *WorkerPool[K, V]) admitLocked(pl *pendingLoad[K, V]) error {
	if p.running < p.limit {
		p.pending[pl.key] = pl
		p.running++
		p.startLocked(pl)
		future := p.pool.Submit(func() (struct{}, error) {
			p.work(pl)
			return struct{}{}, nil
		})
		// work needs p.mu to finish, so only a rejected submit is settled here
		select {
		case <-future.Inner():
			if err := future.Err(); err != nil {
				delete(p.pending, pl.key)
				p.running--
				pl.cancel()
				return err
			}
		default:
		}
		p.updateMetricsLocked()
		return nil
	}
	if p.maxQueue > 0 && p.queue.Len() >= p.maxQueue {
		log.Warn("load queue is full",
			log.FieldComponent(p.name),
			log.FieldKey(pl.key),
			zap.Int("maxQueue", p.maxQueue))
		return merr.WrapErrServiceRequestLimitExceeded(p.maxQueue, "load queue is full")
	}
	p.pending[pl.key] = pl
	pl.state = loadQueued
	pl.elem = p.queue.PushBack(pl)
	p.updateMetricsLocked()
	return nil
}

func (p *WorkerPool[K, V]) startLocked(pl *pendingLoad[K, V]) {
	pl.state = loadRunning
	pl.elem = nil
	pl.ctx, pl.cancel = context.WithCancel(context.Background())
}

// work runs pl and then keeps taking queued loads until the queue is empty.
func (p *WorkerPool[K, V]) work(pl *pendingLoad[K, V]) {
	for pl != nil {
		v, err := p.invoke(pl)
		next, hookPanic := p.complete(pl, v, err)
		if hookPanic != nil {
			// next already holds a slot in p.running
			if next != nil {
				go p.work(next)
			}
			p.raise(hookPanic)
			return
		}
		pl = next
	}
}

func (p *WorkerPool[K, V]) invoke(pl *pendingLoad[K, V]) (v V, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error("loader panicked",
				log.FieldComponent(p.name),
				log.FieldKey(pl.key),
				zap.Any("panic", r),
				zap.Stack("stack"))
			err = fmt.Errorf("loader panicked: %v", r)
		}
		metrics.CacheLoadDuration.WithLabelValues(p.name).Observe(time.Since(start).Seconds())
	}()
	return p.loader(pl.ctx, pl.key)
}

// complete settles pl and returns the next load this worker should run.
// A release hook panic raised while storing the value is returned instead of
// propagated, the waiters still get the loaded value.
func (p *WorkerPool[K, V]) complete(pl *pendingLoad[K, V], v V, loadErr error) (next *pendingLoad[K, V], hookPanic any) {
	p.mu.Lock()
	pl.cancel()
	if p.pending[pl.key] == pl {
		delete(p.pending, pl.key)
	}
	p.running--

	waiters := pl.waiters
	pl.waiters = nil
	var status string
	switch {
	case p.closed:
		// every waiter got ErrServiceClosed already
		status = metrics.CanceledLabel
	case pl.canceled:
		status = metrics.CanceledLabel
	case loadErr != nil:
		status = metrics.FailLabel
		loadErr = merr.WrapErrLoadFailed(loadErr, pl.key)
		log.Debug("load failed", log.FieldComponent(p.name), log.FieldKey(pl.key), zap.Error(loadErr))
	case pl.stale:
		// result of an invalidated load is handed out but never cached
		status = metrics.StaleLabel
	default:
		status = metrics.SuccessLabel
		hookPanic = p.storeLocked(pl.key, v)
	}
	metrics.CacheLoadTotal.WithLabelValues(p.name, status).Inc()

	if len(pl.next) > 0 && !p.closed {
		np := &pendingLoad[K, V]{key: pl.key, waiters: pl.next}
		pl.next = nil
		p.pending[np.key] = np
		np.state = loadQueued
		np.elem = p.queue.PushBack(np)
	}

	if !p.closed && p.running < p.limit && p.queue.Len() > 0 {
		next = p.queue.Remove(p.queue.Front()).(*pendingLoad[K, V])
		p.running++
		p.startLocked(next)
	}
	p.updateMetricsLocked()
	p.mu.Unlock()

	p.dispatch(waiters, v, loadErr)
	return next, hookPanic
}

func (p *WorkerPool[K, V]) storeLocked(key K, v V) (hookPanic any) {
	defer func() {
		hookPanic = recover()
	}()
	p.store.Put(key, v)
	return nil
}

// Cancel drops the load of key, every waiter registered so far gets ErrCanceled.
// A running loader keeps its slot until it returns, its result is discarded.
func (p *WorkerPool[K, V]) Cancel(key K) bool {
	p.mu.Lock()
	pl, ok := p.pending[key]
	if !ok {
		p.mu.Unlock()
		return false
	}

	var waiters []waiter[V]
	switch pl.state {
	case loadQueued:
		p.queue.Remove(pl.elem)
		delete(p.pending, key)
		waiters = pl.waiters
	case loadRunning:
		pl.canceled = true
		pl.cancel()
		waiters = append(pl.waiters, pl.next...)
		pl.next = nil
	}
	pl.waiters = nil
	p.updateMetricsLocked()
	p.mu.Unlock()

	log.Debug("load canceled", log.FieldComponent(p.name), log.FieldKey(key), zap.Int("waiters", len(waiters)))
	p.dispatch(waiters, zeroOf[V](), merr.WrapErrCanceled(key))
	return true
}

// Invalidate drops the resident value of key and marks a running load stale.
// The release hook has run by the time it returns.
func (p *WorkerPool[K, V]) Invalidate(key K) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pl, ok := p.pending[key]; ok && pl.state == loadRunning {
		pl.stale = true
	}
	return p.store.Invalidate(key)
}

// Purge drops every resident value and marks running loads stale.
func (p *WorkerPool[K, V]) Purge() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pl := range p.pending {
		if pl.state == loadRunning {
			pl.stale = true
		}
	}
	p.store.Purge()
}

// Pending reports whether key has a load running or queued.
func (p *WorkerPool[K, V]) Pending(key K) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.pending[key]
	return ok
}

// Stats returns the number of running and queued loads.
func (p *WorkerPool[K, V]) Stats() (running, queued int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running, p.queue.Len()
}

// Close fails every waiter with ErrServiceClosed and cancels running loads.
func (p *WorkerPool[K, V]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	var waiters []waiter[V]
	for key, pl := range p.pending {
		waiters = append(waiters, pl.waiters...)
		waiters = append(waiters, pl.next...)
		pl.waiters, pl.next = nil, nil
		if pl.state == loadRunning {
			pl.cancel()
		} else {
			delete(p.pending, key)
		}
	}
	p.queue.Init()
	p.updateMetricsLocked()
	p.mu.Unlock()

	p.dispatch(waiters, zeroOf[V](), merr.WrapErrServiceClosed(p.name))
	p.pool.Release()
}

// dispatch hands the outcome to every waiter in registration order.
// It must be called without p.mu held.
func (p *WorkerPool[K, V]) dispatch(waiters []waiter[V], v V, err error) {
	if len(waiters) == 0 {
		return
	}
	p.executor.Execute(func() {
		for _, w := range waiters {
			w.deliver(v, err)
		}
	})
}

func (p *WorkerPool[K, V]) updateMetricsLocked() {
	metrics.CachePendingLoadNum.WithLabelValues(p.name).Set(float64(len(p.pending)))
	metrics.CacheQueuedLoadNum.WithLabelValues(p.name).Set(float64(p.queue.Len()))
}

func zeroOf[V any]() V {
	var zero V
	return zero
}
