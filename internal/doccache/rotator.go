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

	"go.uber.org/zap"

	"github.com/capturekit/capturekit/internal/document"
	"github.com/capturekit/capturekit/internal/photo"
	"github.com/capturekit/capturekit/internal/storage"
	"github.com/capturekit/capturekit/pkg/log"
)

// Rotator turns the pixels of a document and writes them back to its uri.
type Rotator struct {
	caches *Caches
	codec  photo.Codec
	writer storage.Writer
}

func NewRotator(caches *Caches, codec photo.Codec, writer storage.Writer) *Rotator {
	return &Rotator{
		caches: caches,
		codec:  codec,
		writer: writer,
	}
}

// Rotate turns doc clockwise by degrees, a multiple of 90. Documents without
// a uri keep the rotated bytes in memory only.
func (r *Rotator) Rotate(ctx context.Context, doc *document.Document, degrees int) error {
	p, err := r.caches.Photo.Load(ctx, doc)
	if err != nil {
		return err
	}
	rotated, err := r.codec.Rotate(p, degrees)
	if err != nil {
		return err
	}
	data, err := r.codec.Encode(rotated)
	if err != nil {
		return err
	}
	if doc.URI() != "" {
		if err := r.writer.Write(ctx, doc.URI(), data); err != nil {
			return err
		}
	}

	r.caches.Photo.Invalidate(doc)
	r.caches.Data.Invalidate(doc)
	doc.SetData(data)
	doc.SetRotation(doc.Rotation() + degrees)
	log.Info("document rotated",
		zap.String("document", doc.ID()),
		zap.Int("degrees", degrees),
		zap.Int("rotation", doc.Rotation()))
	return nil
}
