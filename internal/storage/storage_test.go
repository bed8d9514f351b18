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

package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/atomic"

	"github.com/capturekit/capturekit/pkg/util/merr"
)

func TestParseURI(t *testing.T) {
	cases := []struct {
		uri    string
		want   Location
		expErr error
	}{
		{uri: "scans/a.jpg", want: Location{Scheme: SchemeFile, Path: "scans/a.jpg"}},
		{uri: "/tmp/a.jpg", want: Location{Scheme: SchemeFile, Path: "/tmp/a.jpg"}},
		{uri: "file:///tmp/a.jpg", want: Location{Scheme: SchemeFile, Path: "/tmp/a.jpg"}},
		{uri: "s3://docs/2024/a.jpg", want: Location{Scheme: SchemeS3, Bucket: "docs", Path: "2024/a.jpg"}},
		{uri: "s3:///a.jpg", want: Location{Scheme: SchemeS3, Path: "a.jpg"}},
		{uri: "s3://docs/", expErr: merr.ErrParameterInvalid},
		{uri: "", expErr: merr.ErrParameterInvalid},
		{uri: "ftp://host/a.jpg", expErr: merr.ErrIoUnsupported},
	}
	for _, c := range cases {
		t.Run(c.uri, func(t *testing.T) {
			loc, err := ParseURI(c.uri)
			if c.expErr != nil {
				assert.ErrorIs(t, err, c.expErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.want, loc)
		})
	}
}

type LocalStoreSuite struct {
	suite.Suite
	root  string
	store *LocalStore
}

func (s *LocalStoreSuite) SetupTest() {
	s.root = s.T().TempDir()
	s.store = NewLocalStore(s.root)
}

func (s *LocalStoreSuite) TestWriteRead() {
	ctx := context.Background()
	s.Require().NoError(s.store.Write(ctx, "a/b/c.jpg", []byte("pixels")))

	data, err := s.store.Read(ctx, "a/b/c.jpg")
	s.Require().NoError(err)
	s.Equal([]byte("pixels"), data)

	abs := filepath.Join(s.root, "a/b/c.jpg")
	data, err = s.store.Read(ctx, "file://"+abs)
	s.Require().NoError(err)
	s.Equal([]byte("pixels"), data)
}

func (s *LocalStoreSuite) TestOverwrite() {
	ctx := context.Background()
	s.Require().NoError(s.store.Write(ctx, "x.jpg", []byte("old")))
	s.Require().NoError(s.store.Write(ctx, "x.jpg", []byte("new")))

	data, err := s.store.Read(ctx, "x.jpg")
	s.Require().NoError(err)
	s.Equal([]byte("new"), data)

	entries, err := os.ReadDir(s.root)
	s.Require().NoError(err)
	s.Len(entries, 1)
}

func (s *LocalStoreSuite) TestNotFound() {
	_, err := s.store.Read(context.Background(), "missing.jpg")
	s.ErrorIs(err, merr.ErrIoKeyNotFound)
}

func (s *LocalStoreSuite) TestReadDirectory() {
	s.Require().NoError(os.Mkdir(filepath.Join(s.root, "dir"), os.ModePerm))
	_, err := s.store.Read(context.Background(), "dir")
	s.ErrorIs(err, merr.ErrIoFailed)
}

func (s *LocalStoreSuite) TestWrongScheme() {
	_, err := s.store.Read(context.Background(), "s3://bucket/key")
	s.ErrorIs(err, merr.ErrIoUnsupported)
}

func (s *LocalStoreSuite) TestCanceled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.store.Read(ctx, "x.jpg")
	s.ErrorIs(err, context.Canceled)
	s.ErrorIs(s.store.Write(ctx, "x.jpg", nil), context.Canceled)
}

func TestLocalStore(t *testing.T) {
	suite.Run(t, new(LocalStoreSuite))
}

func TestMinioStoreConfig(t *testing.T) {
	_, err := NewMinioStore(MinioConfig{})
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)

	store, err := NewMinioStore(MinioConfig{Address: "localhost:9000", BucketName: "docs"})
	require.NoError(t, err)

	bucket, key, err := store.locate("s3:///a/b.jpg")
	require.NoError(t, err)
	assert.Equal(t, "docs", bucket)
	assert.Equal(t, "a/b.jpg", key)

	bucket, _, err = store.locate("s3://other/b.jpg")
	require.NoError(t, err)
	assert.Equal(t, "other", bucket)

	_, _, err = store.locate("b.jpg")
	assert.ErrorIs(t, err, merr.ErrIoUnsupported)
}

func TestCheckObjectStorageError(t *testing.T) {
	assert.NoError(t, checkObjectStorageError("s3://b/k", nil))

	err := checkObjectStorageError("s3://b/k", minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404})
	assert.ErrorIs(t, err, merr.ErrIoKeyNotFound)

	err = checkObjectStorageError("s3://b/k", minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403})
	assert.ErrorIs(t, err, merr.ErrIoFailed)
	assert.True(t, merr.IsRetryableErr(err))
}

// memStore counts reads and blocks them until release is closed or ctx is done.
type memStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	reads   atomic.Int32
	release chan struct{}
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Read(ctx context.Context, uri string) ([]byte, error) {
	m.reads.Inc()
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[uri]
	if !ok {
		return nil, merr.WrapErrIoKeyNotFound(uri)
	}
	return data, nil
}

func (m *memStore) Write(ctx context.Context, uri string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[uri] = data
	return nil
}

func TestRouter(t *testing.T) {
	ctx := context.Background()
	local := newMemStore()
	remote := newMemStore()
	r := NewRouter()
	r.Register(SchemeFile, local)
	r.Register(SchemeS3, remote)

	require.NoError(t, r.Write(ctx, "a.jpg", []byte("local")))
	require.NoError(t, r.Write(ctx, "s3://b/a.jpg", []byte("remote")))

	data, err := r.Read(ctx, "a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("local"), data)

	data, err = r.Read(ctx, "s3://b/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("remote"), data)

	_, err = r.Read(ctx, "missing.jpg")
	assert.ErrorIs(t, err, merr.ErrIoKeyNotFound)
}

func TestRouterUnregistered(t *testing.T) {
	r := NewRouter()
	r.Register(SchemeFile, newMemStore())

	_, err := r.Read(context.Background(), "s3://b/a.jpg")
	assert.ErrorIs(t, err, merr.ErrIoUnsupported)
	assert.ErrorIs(t, r.Write(context.Background(), "s3://b/a.jpg", nil), merr.ErrIoUnsupported)
}

func TestRouterSharesConcurrentReads(t *testing.T) {
	store := newMemStore()
	store.data["a.jpg"] = []byte("pixels")
	store.release = make(chan struct{})
	r := NewRouter()
	r.Register(SchemeFile, store)

	const readers = 8
	var started, done sync.WaitGroup
	started.Add(readers)
	done.Add(readers)
	results := make([][]byte, readers)
	for i := 0; i < readers; i++ {
		go func(i int) {
			defer done.Done()
			started.Done()
			data, err := r.Read(context.Background(), "a.jpg")
			assert.NoError(t, err)
			results[i] = data
		}(i)
	}
	started.Wait()
	assert.Eventually(t, func() bool { return store.reads.Load() == 1 }, time.Second, 5*time.Millisecond)
	close(store.release)
	done.Wait()

	for _, data := range results {
		assert.Equal(t, []byte("pixels"), data)
	}
	assert.LessOrEqual(t, store.reads.Load(), int32(readers))
}

func TestRouterSharedReadOutlivesFirstCaller(t *testing.T) {
	store := newMemStore()
	store.data["a.jpg"] = []byte("pixels")
	store.release = make(chan struct{})
	r := NewRouter()
	r.Register(SchemeFile, store)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := r.Read(ctx, "a.jpg")
		firstErr <- err
	}()
	assert.Eventually(t, func() bool { return store.reads.Load() == 1 }, time.Second, 5*time.Millisecond)

	type result struct {
		data []byte
		err  error
	}
	second := make(chan result, 1)
	go func() {
		data, err := r.Read(context.Background(), "a.jpg")
		second <- result{data, err}
	}()
	time.Sleep(20 * time.Millisecond)

	// the first caller gives up, the shared read keeps going
	cancel()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("canceled reader is still waiting")
	}

	close(store.release)
	select {
	case res := <-second:
		assert.NoError(t, res.err)
		assert.Equal(t, []byte("pixels"), res.data)
	case <-time.After(5 * time.Second):
		t.Fatal("joined reader never returned")
	}
	assert.Equal(t, int32(1), store.reads.Load())
}
