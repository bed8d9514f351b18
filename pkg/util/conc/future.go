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

type awaitable interface {
	OK() bool
	Err() error
}

// Future holds the outcome of an async task. Every accessor blocks
// until the task has finished.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) Await() (T, error) {
	<-f.done
	return f.value, f.err
}

func (f *Future[T]) Value() T {
	v, _ := f.Await()
	return v
}

func (f *Future[T]) Err() error {
	_, err := f.Await()
	return err
}

func (f *Future[T]) OK() bool {
	return f.Err() == nil
}

// Inner is closed once the task has finished, for use in select.
func (f *Future[T]) Inner() <-chan struct{} {
	return f.done
}

// Go runs fn on a new goroutine. Use a Pool to bound concurrency.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := newFuture[T]()
	go func() {
		defer close(f.done)
		f.value, f.err = fn()
	}()
	return f
}

// BlockOnAll waits for every future and returns the first error
// in argument order.
func BlockOnAll[F awaitable](futures ...F) error {
	var first error
	for _, f := range futures {
		if err := f.Err(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
