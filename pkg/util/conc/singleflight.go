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

import "golang.org/x/sync/singleflight"

// Singleflight collapses concurrent calls sharing a key into one execution.
type Singleflight[T any] struct {
	group singleflight.Group
}

// Do runs fn once per key among concurrent callers, shared reports
// whether the result went to more than one caller.
func (s *Singleflight[T]) Do(key string, fn func() (T, error)) (v T, err error, shared bool) {
	raw, err, shared := s.group.Do(key, func() (any, error) {
		return fn()
	})
	if raw != nil {
		v = raw.(T)
	}
	return v, err, shared
}

// SingleflightResult is what DoChan delivers.
type SingleflightResult[T any] struct {
	Val    T
	Err    error
	Shared bool
}

// DoChan is Do without blocking, the result arrives on the returned channel.
func (s *Singleflight[T]) DoChan(key string, fn func() (T, error)) <-chan SingleflightResult[T] {
	out := make(chan SingleflightResult[T], 1)
	ch := s.group.DoChan(key, func() (any, error) {
		return fn()
	})
	go func() {
		res := <-ch
		var v T
		if res.Val != nil {
			v = res.Val.(T)
		}
		out <- SingleflightResult[T]{Val: v, Err: res.Err, Shared: res.Shared}
	}()
	return out
}

// Forget makes the next Do for key start a fresh call.
func (s *Singleflight[T]) Forget(key string) {
	s.group.Forget(key)
}
