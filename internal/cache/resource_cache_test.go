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
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/atomic"

	"github.com/capturekit/capturekit/pkg/util/merr"
)

type ResourceCacheSuite struct {
	suite.Suite
}

func (s *ResourceCacheSuite) newCache(loader Loader[string, string], modify ...func(*CacheBuilder[string, string])) *ResourceCache[string, string] {
	b := NewCacheBuilder[string, string]().
		WithName("test").
		WithCapacity(1024).
		WithLoader(loader)
	for _, m := range modify {
		m(b)
	}
	c, err := b.Build()
	s.Require().NoError(err)
	s.T().Cleanup(c.Close)
	return c
}

func (s *ResourceCacheSuite) mustNotSucceed(v string) {
	s.Failf("unexpected success", "value %s", v)
}

func (s *ResourceCacheSuite) mustNotFail(err error) {
	s.Failf("unexpected error", "%v", err)
}

func (s *ResourceCacheSuite) TestBuild() {
	_, err := NewCacheBuilder[string, string]().WithLoader(func(context.Context, string) (string, error) {
		return "", nil
	}).Build()
	s.ErrorIs(err, merr.ErrParameterInvalid)

	_, err = NewCacheBuilder[string, string]().WithCapacity(10).Build()
	s.ErrorIs(err, merr.ErrParameterInvalid)

	_, err = NewCacheBuilder[string, string]().WithCapacity(10).WithMaxRunning(0).
		WithLoader(func(context.Context, string) (string, error) { return "", nil }).Build()
	s.ErrorIs(err, merr.ErrParameterInvalid)
}

func (s *ResourceCacheSuite) TestCoalesce() {
	const n = 10
	calls := atomic.NewInt32(0)
	gate := make(chan struct{})
	c := s.newCache(func(_ context.Context, key string) (string, error) {
		calls.Inc()
		<-gate
		return "value-" + key, nil
	})

	var registered, delivered sync.WaitGroup
	results := make([]string, n)
	registered.Add(n)
	delivered.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer registered.Done()
			hit := c.Get("k",
				func(v string) {
					results[i] = v
					delivered.Done()
				},
				func(err error) {
					s.mustNotFail(err)
					delivered.Done()
				})
			s.False(hit)
		}()
	}
	registered.Wait()
	close(gate)
	delivered.Wait()

	s.Equal(int32(1), calls.Load())
	for _, v := range results {
		s.Equal("value-k", v)
	}

	// a hit runs on the caller and does not load again
	var got string
	s.True(c.Get("k", func(v string) { got = v }, s.mustNotFail))
	s.Equal("value-k", got)
	s.Equal(int32(1), calls.Load())
}

func (s *ResourceCacheSuite) TestDeliveryOrder() {
	gate := make(chan struct{})
	c := s.newCache(func(_ context.Context, key string) (string, error) {
		<-gate
		return key, nil
	})

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	wg.Add(5)
	for i := 0; i < 5; i++ {
		c.Get("k", func(string) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
		}, s.mustNotFail)
	}
	close(gate)
	wg.Wait()
	s.Equal([]int{0, 1, 2, 3, 4}, order)
}

func (s *ResourceCacheSuite) TestWeightedEviction() {
	var (
		mu       sync.Mutex
		released []string
	)
	c := s.newCache(func(_ context.Context, key string) (string, error) {
		return key, nil
	}, func(b *CacheBuilder[string, string]) {
		b.WithCapacity(100).
			WithWeigher(func(string) int64 { return 60 }).
			WithReleaseHook(func(key string, _ string) {
				mu.Lock()
				released = append(released, key)
				mu.Unlock()
			})
	})

	_, err := c.Load(context.Background(), "A")
	s.NoError(err)
	_, err = c.Load(context.Background(), "B")
	s.NoError(err)

	mu.Lock()
	s.Equal([]string{"A"}, released)
	mu.Unlock()
	s.False(c.Peek("A"))
	s.True(c.Peek("B"))
	s.Equal(int64(60), c.Weight())
	s.Equal(int64(100), c.Capacity())
	s.Equal(1, c.Len())
}

func (s *ResourceCacheSuite) TestInvalidate() {
	version := atomic.NewInt64(0)
	var released []string
	c := s.newCache(func(_ context.Context, key string) (string, error) {
		return fmt.Sprintf("v%d", version.Inc()), nil
	}, func(b *CacheBuilder[string, string]) {
		b.WithReleaseHook(func(_ string, value string) {
			released = append(released, value)
		})
	})

	v, err := c.Load(context.Background(), "k")
	s.NoError(err)
	s.Equal("v1", v)

	s.True(c.Invalidate("k"))
	// the hook ran before Invalidate returned
	s.Equal([]string{"v1"}, released)
	s.False(c.Invalidate("k"))

	v, err = c.Load(context.Background(), "k")
	s.NoError(err)
	s.Equal("v2", v)
}

func (s *ResourceCacheSuite) TestInvalidateDuringLoad() {
	version := atomic.NewInt64(0)
	gate := make(chan struct{})
	started := make(chan struct{}, 2)
	c := s.newCache(func(_ context.Context, key string) (string, error) {
		n := version.Inc()
		started <- struct{}{}
		if n == 1 {
			<-gate
		}
		return fmt.Sprintf("v%d", n), nil
	})

	first := make(chan string, 1)
	c.Get("k", func(v string) { first <- v }, s.mustNotFail)
	<-started

	c.Invalidate("k")
	second := make(chan string, 1)
	c.Get("k", func(v string) { second <- v }, s.mustNotFail)

	close(gate)
	s.Equal("v1", <-first)
	s.Equal("v2", <-second)

	v, err := c.Load(context.Background(), "k")
	s.NoError(err)
	s.Equal("v2", v)
	s.Equal(int64(2), version.Load())
}

func (s *ResourceCacheSuite) TestCancelRunning() {
	started := make(chan struct{}, 2)
	c := s.newCache(func(ctx context.Context, key string) (string, error) {
		started <- struct{}{}
		<-ctx.Done()
		return "", ctx.Err()
	})

	errCh := make(chan error, 1)
	c.Get("k", s.mustNotSucceed, func(err error) { errCh <- err })
	<-started

	s.True(c.Cancel("k"))
	err := <-errCh
	s.ErrorIs(err, merr.ErrCanceled)
	s.NotErrorIs(err, merr.ErrLoadFailed)
	s.True(merr.IsCanceled(err))
	s.False(c.Peek("k"))

	s.Eventually(func() bool {
		running, _ := c.pool.Stats()
		return running == 0
	}, time.Second, 5*time.Millisecond)
	s.False(c.Cancel("k"))
}

func (s *ResourceCacheSuite) TestCancelQueued() {
	gate := make(chan struct{})
	var (
		mu      sync.Mutex
		loaded  []string
		started = make(chan struct{}, 1)
	)
	c := s.newCache(func(_ context.Context, key string) (string, error) {
		mu.Lock()
		loaded = append(loaded, key)
		mu.Unlock()
		if key == "a" {
			started <- struct{}{}
			<-gate
		}
		return key, nil
	}, func(b *CacheBuilder[string, string]) {
		b.WithMaxRunning(1)
	})

	done := make(chan struct{})
	c.Get("a", func(string) { close(done) }, s.mustNotFail)
	<-started

	errCh := make(chan error, 1)
	c.Get("b", s.mustNotSucceed, func(err error) { errCh <- err })
	_, queued := c.pool.Stats()
	s.Equal(1, queued)

	s.True(c.Cancel("b"))
	s.ErrorIs(<-errCh, merr.ErrCanceled)

	close(gate)
	<-done
	s.Eventually(func() bool {
		running, _ := c.pool.Stats()
		return running == 0
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	s.Equal([]string{"a"}, loaded)
	mu.Unlock()
}

func (s *ResourceCacheSuite) TestBoundedConcurrency() {
	const keys = 6
	gate := make(chan struct{})
	running := atomic.NewInt32(0)
	maxRunning := atomic.NewInt32(0)
	c := s.newCache(func(_ context.Context, key string) (string, error) {
		cur := running.Inc()
		for {
			old := maxRunning.Load()
			if cur <= old || maxRunning.CompareAndSwap(old, cur) {
				break
			}
		}
		<-gate
		running.Dec()
		return key, nil
	}, func(b *CacheBuilder[string, string]) {
		b.WithMaxRunning(2)
	})

	var wg sync.WaitGroup
	wg.Add(keys)
	for i := 0; i < keys; i++ {
		c.Get(fmt.Sprintf("k%d", i), func(string) { wg.Done() }, s.mustNotFail)
	}
	s.Eventually(func() bool { return running.Load() == 2 }, time.Second, 5*time.Millisecond)
	_, queued := c.pool.Stats()
	s.Equal(keys-2, queued)

	close(gate)
	wg.Wait()
	s.Equal(int32(2), maxRunning.Load())
	s.Equal(keys, c.Len())
}

func (s *ResourceCacheSuite) TestQueueIsFIFO() {
	gate := make(chan struct{})
	started := make(chan struct{}, 1)
	var (
		mu    sync.Mutex
		order []string
	)
	c := s.newCache(func(_ context.Context, key string) (string, error) {
		mu.Lock()
		order = append(order, key)
		mu.Unlock()
		if key == "a" {
			started <- struct{}{}
			<-gate
		}
		return key, nil
	}, func(b *CacheBuilder[string, string]) {
		b.WithMaxRunning(1)
	})

	var wg sync.WaitGroup
	wg.Add(4)
	c.Get("a", func(string) { wg.Done() }, s.mustNotFail)
	<-started
	for _, key := range []string{"b", "c", "d"} {
		c.Get(key, func(string) { wg.Done() }, s.mustNotFail)
	}
	close(gate)
	wg.Wait()

	mu.Lock()
	s.Equal([]string{"a", "b", "c", "d"}, order)
	mu.Unlock()
}

func (s *ResourceCacheSuite) TestQueueLimit() {
	gate := make(chan struct{})
	started := make(chan struct{}, 1)
	c := s.newCache(func(_ context.Context, key string) (string, error) {
		if key == "a" {
			started <- struct{}{}
		}
		<-gate
		return key, nil
	}, func(b *CacheBuilder[string, string]) {
		b.WithMaxRunning(1).WithMaxQueue(1)
	})

	var wg sync.WaitGroup
	wg.Add(2)
	c.Get("a", func(string) { wg.Done() }, s.mustNotFail)
	<-started
	c.Get("b", func(string) { wg.Done() }, s.mustNotFail)

	errCh := make(chan error, 1)
	c.Get("c", s.mustNotSucceed, func(err error) { errCh <- err })
	s.ErrorIs(<-errCh, merr.ErrServiceRequestLimitExceeded)

	close(gate)
	wg.Wait()
	s.False(c.Peek("c"))
}

func (s *ResourceCacheSuite) TestLoadFailed() {
	errDisk := errors.New("disk gone")
	calls := atomic.NewInt32(0)
	c := s.newCache(func(_ context.Context, key string) (string, error) {
		calls.Inc()
		return "", errDisk
	})

	_, err := c.Load(context.Background(), "k")
	s.ErrorIs(err, merr.ErrLoadFailed)
	s.ErrorIs(err, errDisk)
	s.False(merr.IsCanceled(err))
	s.False(c.Peek("k"))

	_, err = c.Load(context.Background(), "k")
	s.Error(err)
	s.Equal(int32(2), calls.Load())
}

func (s *ResourceCacheSuite) TestLoaderPanic() {
	c := s.newCache(func(_ context.Context, key string) (string, error) {
		panic("decoder bug")
	})

	_, err := c.Load(context.Background(), "k")
	s.ErrorIs(err, merr.ErrLoadFailed)
	s.Contains(err.Error(), "decoder bug")

	// the worker slot was given back
	running, _ := c.pool.Stats()
	s.Equal(0, running)
}

func (s *ResourceCacheSuite) TestReleaseHookPanicOnLoad() {
	var hookFired atomic.Bool
	c := s.newCache(func(_ context.Context, key string) (string, error) {
		return key + strings.Repeat("x", 60-len(key)), nil
	}, func(b *CacheBuilder[string, string]) {
		b.WithCapacity(100).
			WithWeigher(func(v string) int64 { return int64(len(v)) }).
			WithReleaseHook(func(string, string) {
				if hookFired.CompareAndSwap(false, true) {
					panic("release bug")
				}
			})
	})
	raised := make(chan any, 1)
	c.pool.raise = func(r any) { raised <- r }

	_, err := c.Load(context.Background(), "a")
	s.Require().NoError(err)

	// storing b evicts a, whose hook panics on the worker
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v, err := c.Load(ctx, "b")
	s.NoError(err)
	s.Equal("b"+strings.Repeat("x", 59), v)

	select {
	case r := <-raised:
		s.Equal("release bug", r)
	case <-ctx.Done():
		s.FailNow("release hook panic was swallowed")
	}

	// the pool lock was released and the slot given back
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Invalidate("b")
		c.Purge()
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.FailNow("pool is still locked after the release hook panic")
	}
	running, queued := c.pool.Stats()
	s.Equal(0, running)
	s.Equal(0, queued)

	_, err = c.Load(ctx, "c")
	s.NoError(err)
}

func (s *ResourceCacheSuite) TestReleaseHookPanicOnInvalidate() {
	c := s.newCache(func(_ context.Context, key string) (string, error) {
		return key, nil
	}, func(b *CacheBuilder[string, string]) {
		b.WithReleaseHook(func(key string, _ string) {
			if key == "bad" {
				panic("release bug")
			}
		})
	})
	_, err := c.Load(context.Background(), "bad")
	s.Require().NoError(err)
	_, err = c.Load(context.Background(), "good")
	s.Require().NoError(err)

	s.PanicsWithValue("release bug", func() { c.Invalidate("bad") })
	s.False(c.Peek("bad"))

	// the pool lock was released by the panic
	s.True(c.Invalidate("good"))
	s.Equal(0, c.Len())

	_, err = c.Load(context.Background(), "bad")
	s.Require().NoError(err)
	s.PanicsWithValue("release bug", func() { c.Purge() })
	s.Equal(0, c.Len())
	v, err := c.Load(context.Background(), "good")
	s.NoError(err)
	s.Equal("good", v)
}

func (s *ResourceCacheSuite) TestLoadContext() {
	gate := make(chan struct{})
	defer close(gate)
	c := s.newCache(func(_ context.Context, key string) (string, error) {
		<-gate
		return key, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Load(ctx, "k")
	s.ErrorIs(err, context.DeadlineExceeded)
	// the shared load goes on
	s.True(c.pool.Pending("k"))
}

func (s *ResourceCacheSuite) TestWarm() {
	calls := atomic.NewInt32(0)
	c := s.newCache(func(_ context.Context, key string) (string, error) {
		calls.Inc()
		if key == "bad" {
			return "", errors.New("unreadable")
		}
		return key, nil
	})

	s.NoError(c.Warm(context.Background(), "a", "b", "c"))
	s.Equal(3, c.Len())
	s.Equal(int32(3), calls.Load())

	err := c.Warm(context.Background(), "a", "bad", "d")
	s.ErrorIs(err, merr.ErrLoadFailed)
	s.True(c.Peek("d"))
	// resident keys are skipped
	s.Equal(int32(5), calls.Load())
}

func (s *ResourceCacheSuite) TestPurge() {
	version := atomic.NewInt64(0)
	c := s.newCache(func(_ context.Context, key string) (string, error) {
		return fmt.Sprintf("%s%d", key, version.Inc()), nil
	})
	s.NoError(c.Warm(context.Background(), "a", "b"))
	c.Purge()
	s.Equal(0, c.Len())
	s.Equal(int64(0), c.Weight())
}

func (s *ResourceCacheSuite) TestClose() {
	started := make(chan struct{}, 1)
	c := s.newCache(func(ctx context.Context, key string) (string, error) {
		started <- struct{}{}
		<-ctx.Done()
		return "", ctx.Err()
	})

	errCh := make(chan error, 2)
	c.Get("k", s.mustNotSucceed, func(err error) { errCh <- err })
	<-started
	c.Close()
	s.ErrorIs(<-errCh, merr.ErrServiceClosed)

	// answered on the caller once closed
	c.Get("k", s.mustNotSucceed, func(err error) { errCh <- err })
	s.ErrorIs(<-errCh, merr.ErrServiceClosed)
}

func (s *ResourceCacheSuite) TestSharedExecutor() {
	executor := NewSerialExecutor()
	defer executor.Close()

	c := s.newCache(func(_ context.Context, key string) (string, error) {
		return key, nil
	}, func(b *CacheBuilder[string, string]) {
		b.WithExecutor(executor)
	})
	v, err := c.Load(context.Background(), "k")
	s.NoError(err)
	s.Equal("k", v)
	s.Equal("test", c.Name())
}

func TestResourceCache(t *testing.T) {
	suite.Run(t, new(ResourceCacheSuite))
}
