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

	"github.com/capturekit/capturekit/internal/cache"
	"github.com/capturekit/capturekit/internal/document"
	"github.com/capturekit/capturekit/internal/photo"
)

const PhotoCacheName = "photo"

// PhotoCache holds decoded photos, decoding from the bytes the
// DocumentDataCache provides.
type PhotoCache struct {
	registry *registry
	cache    *cache.ResourceCache[document.Key, *photo.Photo]
}

func newPhotoCache(reg *registry, data *DocumentDataCache, codec photo.Codec, cfg CacheConfig, minWeightKB int64, executor cache.Executor) (*PhotoCache, error) {
	rc, err := cache.NewCacheBuilder[document.Key, *photo.Photo]().
		WithName(PhotoCacheName).
		WithCapacity(cfg.CapacityKB).
		WithMinWeight(minWeightKB).
		WithMaxRunning(cfg.MaxRunning).
		WithMaxQueue(cfg.MaxQueue).
		WithExecutor(executor).
		WithWeigher(func(p *photo.Photo) int64 { return p.SizeBytes() / 1024 }).
		WithLoader(func(ctx context.Context, key document.Key) (*photo.Photo, error) {
			doc, err := reg.lookup(key)
			if err != nil {
				return nil, err
			}
			raw, err := data.Load(ctx, doc)
			if err != nil {
				return nil, err
			}
			return codec.Decode(raw)
		}).
		Build()
	if err != nil {
		return nil, err
	}
	return &PhotoCache{registry: reg, cache: rc}, nil
}

func (c *PhotoCache) Get(doc *document.Document, onSuccess func(*photo.Photo), onError func(error)) bool {
	return c.cache.Get(c.registry.add(doc), onSuccess, onError)
}

func (c *PhotoCache) Load(ctx context.Context, doc *document.Document) (*photo.Photo, error) {
	return c.cache.Load(ctx, c.registry.add(doc))
}

func (c *PhotoCache) Warm(ctx context.Context, docs ...*document.Document) error {
	keys := make([]document.Key, 0, len(docs))
	for _, doc := range docs {
		keys = append(keys, c.registry.add(doc))
	}
	return c.cache.Warm(ctx, keys...)
}

func (c *PhotoCache) Peek(doc *document.Document) bool {
	return c.cache.Peek(doc.Key())
}

func (c *PhotoCache) Invalidate(doc *document.Document) bool {
	return c.cache.Invalidate(doc.Key())
}

func (c *PhotoCache) Cancel(doc *document.Document) bool {
	return c.cache.Cancel(doc.Key())
}

func (c *PhotoCache) Purge() {
	c.cache.Purge()
}

func (c *PhotoCache) Len() int {
	return c.cache.Len()
}

func (c *PhotoCache) Weight() int64 {
	return c.cache.Weight()
}

func (c *PhotoCache) Capacity() int64 {
	return c.cache.Capacity()
}

func (c *PhotoCache) Close() {
	c.cache.Close()
}
