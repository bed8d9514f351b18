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

package document

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/capturekit/capturekit/internal/mocks"
	"github.com/capturekit/capturekit/pkg/util/merr"
)

func TestNewAssignsID(t *testing.T) {
	a := New(Options{Type: TypeImage})
	b := New(Options{Type: TypeImage})
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
	assert.NotEqual(t, a.Key(), b.Key())

	c := New(Options{ID: "page-1", Type: TypePDF, MIMEType: "application/pdf", Imported: true})
	assert.Equal(t, Key{ID: "page-1", Type: TypePDF, MIMEType: "application/pdf", Imported: true}, c.Key())
}

func TestLoadDataInMemory(t *testing.T) {
	reader := mocks.NewReader(t)
	doc := New(Options{Data: []byte("jpeg"), URI: "a.jpg"})

	data, err := doc.LoadData(context.Background(), reader)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)
	reader.AssertNotCalled(t, "Read", mock.Anything, mock.Anything)
}

func TestLoadDataFromURI(t *testing.T) {
	reader := mocks.NewReader(t)
	reader.EXPECT().Read(mock.Anything, "a.jpg").Return([]byte("jpeg"), nil).Once()
	doc := New(Options{URI: "a.jpg"})

	data, err := doc.LoadData(context.Background(), reader)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)
	assert.True(t, doc.HasData())

	// kept, no second read
	data, err = doc.LoadData(context.Background(), reader)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)
}

func TestLoadDataErrors(t *testing.T) {
	reader := mocks.NewReader(t)
	_, err := New(Options{}).LoadData(context.Background(), reader)
	assert.ErrorIs(t, err, merr.ErrDocumentNoSource)

	reader.EXPECT().Read(mock.Anything, "gone.jpg").Return(nil, merr.WrapErrIoKeyNotFound("gone.jpg"))
	doc := New(Options{URI: "gone.jpg"})
	_, err = doc.LoadData(context.Background(), reader)
	assert.ErrorIs(t, err, merr.ErrIoKeyNotFound)
	assert.False(t, doc.HasData())
}

func TestUnloadData(t *testing.T) {
	doc := New(Options{URI: "a.jpg", Data: []byte("jpeg")})
	doc.UnloadData()
	assert.False(t, doc.HasData())

	inMemoryOnly := New(Options{Data: []byte("jpeg")})
	inMemoryOnly.UnloadData()
	assert.True(t, inMemoryOnly.HasData())
}

func TestRotation(t *testing.T) {
	doc := New(Options{Rotation: 450})
	assert.Equal(t, 90, doc.Rotation())

	doc.SetRotation(-90)
	assert.Equal(t, 270, doc.Rotation())

	doc.SetRotation(360)
	assert.Equal(t, 0, doc.Rotation())
}
