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

package doccache

import (
	"context"
	"image"
	"io"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/capturekit/capturekit/internal/document"
	"github.com/capturekit/capturekit/internal/mocks"
	"github.com/capturekit/capturekit/internal/photo"
	"github.com/capturekit/capturekit/pkg/util/merr"
)

func kb(n int) []byte {
	return make([]byte, n*1024)
}

type CachesSuite struct {
	suite.Suite
	reader *mocks.Reader
	writer *mocks.Writer
	codec  *mocks.Codec
	caches *Caches
}

func (s *CachesSuite) SetupTest() {
	s.reader = mocks.NewReader(s.T())
	s.writer = mocks.NewWriter(s.T())
	s.codec = mocks.NewCodec(s.T())

	caches, err := NewCaches(Config{
		Data:  CacheConfig{CapacityKB: 8, MaxRunning: 2},
		Photo: CacheConfig{CapacityKB: 64, MaxRunning: 2},
	}, s.reader, s.codec)
	s.Require().NoError(err)
	s.caches = caches
}

func (s *CachesSuite) TearDownTest() {
	s.caches.Close()
}

func (s *CachesSuite) TestInvalidConfig() {
	_, err := NewCaches(Config{Data: CacheConfig{CapacityKB: 8}}, s.reader, s.codec)
	s.ErrorIs(err, merr.ErrParameterInvalid)
}

func (s *CachesSuite) TestDataLoadCoalesced() {
	release := make(chan struct{})
	s.reader.EXPECT().Read(mock.Anything, "a.jpg").RunAndReturn(func(ctx context.Context, uri string) ([]byte, error) {
		<-release
		return kb(3), nil
	}).Once()

	doc := document.New(document.Options{URI: "a.jpg", Type: document.TypeImage})
	results := make(chan []byte, 5)
	for i := 0; i < 5; i++ {
		hit := s.caches.Data.Get(doc, func(data []byte) { results <- data }, func(err error) { s.Fail(err.Error()) })
		s.False(hit)
	}
	close(release)
	for i := 0; i < 5; i++ {
		s.Len(<-results, 3*1024)
	}

	s.True(doc.HasData())
	s.True(s.caches.Data.Peek(doc))
	s.Equal(int64(3), s.caches.Data.Weight())

	hit := s.caches.Data.Get(doc, func(data []byte) { s.Len(data, 3*1024) }, nil)
	s.True(hit)
}

func (s *CachesSuite) TestEvictionUnloadsDocument() {
	s.reader.EXPECT().Read(mock.Anything, "a.jpg").Return(kb(5), nil).Once()
	s.reader.EXPECT().Read(mock.Anything, "b.jpg").Return(kb(5), nil).Once()
	a := document.New(document.Options{URI: "a.jpg"})
	b := document.New(document.Options{URI: "b.jpg"})

	_, err := s.caches.Data.Load(context.Background(), a)
	s.Require().NoError(err)
	s.True(a.HasData())

	_, err = s.caches.Data.Load(context.Background(), b)
	s.Require().NoError(err)
	s.False(s.caches.Data.Peek(a))
	s.False(a.HasData())
	s.True(b.HasData())
	s.Equal(1, s.caches.Data.Len())
}

func (s *CachesSuite) TestInMemoryDocument() {
	doc := document.New(document.Options{Data: kb(2)})
	data, err := s.caches.Data.Load(context.Background(), doc)
	s.Require().NoError(err)
	s.Len(data, 2*1024)

	s.caches.Data.Invalidate(doc)
	s.True(doc.HasData())
}

func (s *CachesSuite) TestNoSource() {
	_, err := s.caches.Data.Load(context.Background(), document.New(document.Options{}))
	s.ErrorIs(err, merr.ErrDocumentNoSource)
	s.ErrorIs(err, merr.ErrLoadFailed)
}

func (s *CachesSuite) TestPhotoDerivesFromData() {
	raw := kb(1)
	p := photo.New(image.NewRGBA(image.Rect(0, 0, 32, 32)))
	s.reader.EXPECT().Read(mock.Anything, "a.jpg").Return(raw, nil).Once()
	s.codec.EXPECT().Decode(raw).Return(p, nil).Once()

	doc := document.New(document.Options{URI: "a.jpg"})
	got, err := s.caches.Photo.Load(context.Background(), doc)
	s.Require().NoError(err)
	s.Equal(p.ID, got.ID)
	s.True(s.caches.Data.Peek(doc))
	s.True(s.caches.Photo.Peek(doc))
	s.Equal(int64(4), s.caches.Photo.Weight())

	again, err := s.caches.Photo.Load(context.Background(), doc)
	s.Require().NoError(err)
	s.Same(got, again)
}

func (s *CachesSuite) TestPhotoLoadFailed() {
	s.reader.EXPECT().Read(mock.Anything, "gone.jpg").Return(nil, merr.WrapErrIoKeyNotFound("gone.jpg"))

	doc := document.New(document.Options{URI: "gone.jpg"})
	_, err := s.caches.Photo.Load(context.Background(), doc)
	s.ErrorIs(err, merr.ErrLoadFailed)
	s.ErrorIs(err, merr.ErrIoKeyNotFound)
	s.False(s.caches.Photo.Peek(doc))
	s.False(s.caches.Data.Peek(doc))
}

func (s *CachesSuite) TestPhotoDecodeFailed() {
	raw := []byte("garbage")
	s.reader.EXPECT().Read(mock.Anything, "a.jpg").Return(raw, nil).Once()
	s.codec.EXPECT().Decode(raw).Return(nil, merr.WrapErrPhotoDecode(io.ErrUnexpectedEOF)).Once()

	doc := document.New(document.Options{URI: "a.jpg"})
	_, err := s.caches.Photo.Load(context.Background(), doc)
	s.ErrorIs(err, merr.ErrPhotoDecode)
	// the bytes stay cached, only the decode failed
	s.True(s.caches.Data.Peek(doc))
}

func (s *CachesSuite) loadPhoto(uri string) (*document.Document, *photo.Photo) {
	raw := kb(1)
	p := photo.New(image.NewRGBA(image.Rect(0, 0, 16, 16)))
	s.reader.EXPECT().Read(mock.Anything, uri).Return(raw, nil).Once()
	s.codec.EXPECT().Decode(raw).Return(p, nil).Once()

	doc := document.New(document.Options{URI: uri})
	_, err := s.caches.Photo.Load(context.Background(), doc)
	s.Require().NoError(err)
	return doc, p
}

func (s *CachesSuite) TestForget() {
	doc, _ := s.loadPhoto("a.jpg")
	s.Equal(1, s.caches.registry.len())

	s.caches.Forget(doc)
	s.False(s.caches.Photo.Peek(doc))
	s.False(s.caches.Data.Peek(doc))
	s.False(doc.HasData())
	s.Equal(0, s.caches.registry.len())
}

func (s *CachesSuite) TestTrim() {
	doc, _ := s.loadPhoto("a.jpg")

	s.caches.Trim()
	s.Equal(0, s.caches.Photo.Len())
	s.True(s.caches.Data.Peek(doc))
}

func (s *CachesSuite) TestRotate() {
	doc, p := s.loadPhoto("a.jpg")
	rotated := &photo.Photo{ID: p.ID, Image: image.NewRGBA(image.Rect(0, 0, 16, 16)), Rotation: 90}
	s.codec.EXPECT().Rotate(p, 90).Return(rotated, nil).Once()
	s.codec.EXPECT().Encode(rotated).Return([]byte("rotated"), nil).Once()
	s.writer.EXPECT().Write(mock.Anything, "a.jpg", []byte("rotated")).Return(nil).Once()

	rotator := NewRotator(s.caches, s.codec, s.writer)
	s.Require().NoError(rotator.Rotate(context.Background(), doc, 90))

	s.False(s.caches.Photo.Peek(doc))
	s.False(s.caches.Data.Peek(doc))
	s.Equal([]byte("rotated"), doc.Data())
	s.Equal(90, doc.Rotation())

	// served from the document, no second read
	data, err := s.caches.Data.Load(context.Background(), doc)
	s.Require().NoError(err)
	s.Equal([]byte("rotated"), data)
}

func (s *CachesSuite) TestRotateWriteFailed() {
	doc, p := s.loadPhoto("a.jpg")
	s.codec.EXPECT().Rotate(p, 90).Return(p, nil).Once()
	s.codec.EXPECT().Encode(p).Return([]byte("rotated"), nil).Once()
	s.writer.EXPECT().Write(mock.Anything, "a.jpg", mock.Anything).Return(merr.WrapErrIoFailed("a.jpg", context.DeadlineExceeded)).Once()

	rotator := NewRotator(s.caches, s.codec, s.writer)
	err := rotator.Rotate(context.Background(), doc, 90)
	s.ErrorIs(err, merr.ErrIoFailed)
	s.True(s.caches.Photo.Peek(doc))
	s.Equal(0, doc.Rotation())
}

func TestCaches(t *testing.T) {
	suite.Run(t, new(CachesSuite))
}
