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

	"go.uber.org/zap"

	"github.com/capturekit/capturekit/pkg/log"
)

// Executor runs completion callbacks, it is the callback context of a cache.
type Executor interface {
	Execute(task func())
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(task func())

func (f ExecutorFunc) Execute(task func()) {
	f(task)
}

// SerialExecutor runs tasks one by one on a single goroutine,
// in submission order.
type SerialExecutor struct {
	mu     sync.Mutex
	tasks  []func()
	closed bool
	signal chan struct{}
	done   chan struct{}
}

func NewSerialExecutor() *SerialExecutor {
	e := &SerialExecutor{
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go e.loop()
	return e
}

// Execute queues task, it never blocks.
// Tasks submitted after Close run on the caller.
func (e *SerialExecutor) Execute(task func()) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		e.run(task)
		return
	}
	e.tasks = append(e.tasks, task)
	e.mu.Unlock()

	select {
	case e.signal <- struct{}{}:
	default:
	}
}

func (e *SerialExecutor) loop() {
	defer close(e.done)
	for {
		e.mu.Lock()
		tasks := e.tasks
		e.tasks = nil
		closed := e.closed
		e.mu.Unlock()

		for _, task := range tasks {
			e.run(task)
		}
		if len(tasks) > 0 {
			continue
		}
		if closed {
			return
		}
		<-e.signal
	}
}

func (e *SerialExecutor) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("callback panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	task()
}

// Close runs the tasks already queued, then stops the goroutine.
func (e *SerialExecutor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		<-e.done
		return
	}
	e.closed = true
	e.mu.Unlock()

	select {
	case e.signal <- struct{}{}:
	default:
	}
	<-e.done
}
