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

package conc

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/capturekit/capturekit/pkg/log"
	"github.com/capturekit/capturekit/pkg/util/merr"
)

// Pool runs tasks on a bounded set of goroutines and hands back futures.
type Pool[T any] struct {
	name  string
	inner *ants.Pool
	opt   poolOption
}

func NewPool[T any](name string, size int, opts ...PoolOption) (*Pool[T], error) {
	if size <= 0 {
		return nil, merr.WrapErrParameterInvalidMsg("positive pool size, got %d", size)
	}
	var opt poolOption
	for _, o := range opts {
		o(&opt)
	}
	inner, err := ants.NewPool(size, opt.antsOptions(name)...)
	if err != nil {
		return nil, merr.WrapErrServiceInternal(err.Error(), "failed to create pool "+name)
	}
	return &Pool[T]{
		name:  name,
		inner: inner,
		opt:   opt,
	}, nil
}

// Submit runs method on a worker. Unless the pool is non-blocking it
// waits for a free worker. A task the pool refuses resolves the future
// at once with ErrServiceClosed or ErrServiceRequestLimitExceeded.
func (pool *Pool[T]) Submit(method func() (T, error)) *Future[T] {
	future := newFuture[T]()
	err := pool.inner.Submit(func() {
		defer close(future.done)
		defer func() {
			if x := recover(); x != nil {
				future.err = merr.WrapErrServiceInternal(fmt.Sprint(x), "task panicked")
				if !pool.opt.concealPanic {
					panic(x)
				}
				log.Warn("task panicked", zap.String("pool", pool.name), zap.Any("panic", x))
			}
		}()
		if pool.opt.preHandler != nil {
			pool.opt.preHandler()
		}
		future.value, future.err = method()
	})
	if err != nil {
		future.err = pool.rejected(err)
		close(future.done)
	}
	return future
}

func (pool *Pool[T]) rejected(err error) error {
	switch {
	case errors.Is(err, ants.ErrPoolClosed):
		return merr.WrapErrServiceClosed(pool.name)
	case errors.Is(err, ants.ErrPoolOverload):
		return merr.WrapErrServiceRequestLimitExceeded(pool.inner.Cap(), "pool "+pool.name+" is busy")
	default:
		return merr.WrapErrServiceInternal(err.Error(), "pool "+pool.name+" refused task")
	}
}

func (pool *Pool[T]) Name() string {
	return pool.name
}

func (pool *Pool[T]) Cap() int {
	return pool.inner.Cap()
}

func (pool *Pool[T]) Running() int {
	return pool.inner.Running()
}

func (pool *Pool[T]) Free() int {
	return pool.inner.Free()
}

func (pool *Pool[T]) IsClosed() bool {
	return pool.inner.IsClosed()
}

// Release stops accepting tasks. Running tasks finish on their own.
func (pool *Pool[T]) Release() {
	pool.inner.Release()
}
