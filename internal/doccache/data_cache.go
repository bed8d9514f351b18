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

	"github.com/capturekit/capturekit/internal/cache"
	"github.com/capturekit/capturekit/internal/document"
	"github.com/capturekit/capturekit/internal/storage"
	"github.com/capturekit/capturekit/pkg/log"
)

const DocumentDataCacheName = "document_data"

// DocumentDataCache holds the encoded bytes of documents. Evicting an entry
// unloads the bytes from its document, so one copy lives in memory.
type DocumentDataCache struct {
	registry *registry
	cache    *cache.ResourceCache[document.Key, []byte]
}

func newDocumentDataCache(reg *registry, reader storage.Reader, cfg CacheConfig, minWeightKB int64, executor cache.Executor) (*DocumentDataCache, error) {
	c := &DocumentDataCache{registry: reg}
	rc, err := cache.NewCacheBuilder[document.Key, []byte]().
		WithName(DocumentDataCacheName).
		WithCapacity(cfg.CapacityKB).
		WithMinWeight(minWeightKB).
		WithMaxRunning(cfg.MaxRunning).
		WithMaxQueue(cfg.MaxQueue).
		WithExecutor(executor).
		WithWeigher(func(data []byte) int64 { return int64(len(data) / 1024) }).
		WithReleaseHook(c.release).
		WithLoader(func(ctx context.Context, key document.Key) ([]byte, error) {
			doc, err := reg.lookup(key)
			if err != nil {
				return nil, err
			}
			return doc.LoadData(ctx, reader)
		}).
		Build()
	if err != nil {
		return nil, err
	}
	c.cache = rc
	return c, nil
}

func (c *DocumentDataCache) release(key document.Key, _ []byte) {
	doc, err := c.registry.lookup(key)
	if err != nil {
		return
	}
	doc.UnloadData()
	log.Debug("document data released", zap.Stringer("document", key))
}

// Get returns true and calls onSuccess right away when the bytes of doc
// are cached, otherwise the callbacks run once they are read.
func (c *DocumentDataCache) Get(doc *document.Document, onSuccess func([]byte), onError func(error)) bool {
	return c.cache.Get(c.registry.add(doc), onSuccess, onError)
}

func (c *DocumentDataCache) Load(ctx context.Context, doc *document.Document) ([]byte, error) {
	return c.cache.Load(ctx, c.registry.add(doc))
}

func (c *DocumentDataCache) Warm(ctx context.Context, docs ...*document.Document) error {
	keys := make([]document.Key, 0, len(docs))
	for _, doc := range docs {
		keys = append(keys, c.registry.add(doc))
	}
	return c.cache.Warm(ctx, keys...)
}

func (c *DocumentDataCache) Peek(doc *document.Document) bool {
	return c.cache.Peek(doc.Key())
}

func (c *DocumentDataCache) Invalidate(doc *document.Document) bool {
	return c.cache.Invalidate(doc.Key())
}

func (c *DocumentDataCache) Cancel(doc *document.Document) bool {
	return c.cache.Cancel(doc.Key())
}

func (c *DocumentDataCache) Purge() {
	c.cache.Purge()
}

func (c *DocumentDataCache) Len() int {
	return c.cache.Len()
}

func (c *DocumentDataCache) Weight() int64 {
	return c.cache.Weight()
}

func (c *DocumentDataCache) Capacity() int64 {
	return c.cache.Capacity()
}

func (c *DocumentDataCache) Close() {
	c.cache.Close()
}
