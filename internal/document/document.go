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
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/capturekit/capturekit/internal/storage"
	"github.com/capturekit/capturekit/pkg/util/merr"
)

type Type string

const (
	TypeImage          Type = "image"
	TypeImageMultiPage Type = "image_multi_page"
	TypePDF            Type = "pdf"
	TypeQRCode         Type = "qrcode"
)

// Key holds the identity fields of a document. Two documents with equal
// keys share cache entries.
type Key struct {
	ID         string
	URI        string
	Type       Type
	MIMEType   string
	Reviewable bool
	Imported   bool
}

func (k Key) String() string {
	return fmt.Sprintf("%s(%s)", k.ID, k.Type)
}

// Options describes a new document. An empty ID gets a random one.
type Options struct {
	ID         string
	URI        string
	Type       Type
	MIMEType   string
	Reviewable bool
	Imported   bool
	Data       []byte
	Rotation   int
}

// Document is a captured or imported page. Its data may be held in memory,
// read lazily from URI, or both.
type Document struct {
	key Key

	mu       sync.RWMutex
	data     []byte
	rotation int
}

func New(opts Options) *Document {
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	return &Document{
		key: Key{
			ID:         id,
			URI:        opts.URI,
			Type:       opts.Type,
			MIMEType:   opts.MIMEType,
			Reviewable: opts.Reviewable,
			Imported:   opts.Imported,
		},
		data:     opts.Data,
		rotation: normalizeRotation(opts.Rotation),
	}
}

func (d *Document) Key() Key {
	return d.key
}

func (d *Document) ID() string {
	return d.key.ID
}

func (d *Document) URI() string {
	return d.key.URI
}

func (d *Document) Data() []byte {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.data
}

func (d *Document) HasData() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.data != nil
}

func (d *Document) SetData(data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data = data
}

// LoadData returns the in-memory data, reading it from the document uri
// and keeping it when there is none.
func (d *Document) LoadData(ctx context.Context, reader storage.Reader) ([]byte, error) {
	if data := d.Data(); data != nil {
		return data, nil
	}
	if d.key.URI == "" {
		return nil, merr.WrapErrDocumentNoSource(d.key.ID)
	}
	data, err := reader.Read(ctx, d.key.URI)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.data == nil {
		d.data = data
	}
	return d.data, nil
}

// UnloadData drops the in-memory data of a document that can be read again
// from its uri. Documents without a uri keep their data.
func (d *Document) UnloadData() {
	if d.key.URI == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data = nil
}

// Rotation returns the clockwise display rotation in degrees, in [0, 360).
func (d *Document) Rotation() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rotation
}

func (d *Document) SetRotation(degrees int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rotation = normalizeRotation(degrees)
}

func (d *Document) String() string {
	return fmt.Sprintf("Document{id=%s, type=%s, mime=%s, uri=%s, hasData=%t}",
		d.key.ID, d.key.Type, d.key.MIMEType, d.key.URI, d.HasData())
}

func normalizeRotation(degrees int) int {
	degrees %= 360
	if degrees < 0 {
		degrees += 360
	}
	return degrees
}
