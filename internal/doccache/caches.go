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
	"go.uber.org/zap"

	"github.com/capturekit/capturekit/internal/cache"
	"github.com/capturekit/capturekit/internal/document"
	"github.com/capturekit/capturekit/internal/photo"
	"github.com/capturekit/capturekit/internal/storage"
	"github.com/capturekit/capturekit/pkg/log"
	"github.com/capturekit/capturekit/pkg/util/paramtable"
)

type CacheConfig struct {
	CapacityKB int64
	MaxRunning int
	// MaxQueue bounds the loads waiting for a worker, 0 means unbounded.
	MaxQueue int
}

type Config struct {
	Data        CacheConfig
	Photo       CacheConfig
	MinWeightKB int64
	// Executor runs the callbacks of both caches. When nil each cache
	// runs its own serial executor.
	Executor cache.Executor
}

// Caches owns the document data and photo caches of one process.
type Caches struct {
	registry *registry
	Data     *DocumentDataCache
	Photo    *PhotoCache
}

func NewCaches(cfg Config, reader storage.Reader, codec photo.Codec) (*Caches, error) {
	if cfg.MinWeightKB <= 0 {
		cfg.MinWeightKB = 1
	}
	for _, c := range []*CacheConfig{&cfg.Data, &cfg.Photo} {
		if c.MaxRunning <= 0 {
			c.MaxRunning = paramtable.DefaultMaxRunning
		}
	}

	reg := newRegistry()
	data, err := newDocumentDataCache(reg, reader, cfg.Data, cfg.MinWeightKB, cfg.Executor)
	if err != nil {
		return nil, err
	}
	p, err := newPhotoCache(reg, data, codec, cfg.Photo, cfg.MinWeightKB, cfg.Executor)
	if err != nil {
		data.Close()
		return nil, err
	}
	log.Info("document caches created",
		zap.Int64("dataCapacityKB", cfg.Data.CapacityKB),
		zap.Int64("photoCapacityKB", cfg.Photo.CapacityKB),
		zap.Int64("minWeightKB", cfg.MinWeightKB))
	return &Caches{
		registry: reg,
		Data:     data,
		Photo:    p,
	}, nil
}

// Forget drops doc from both caches, as when a page is deleted.
func (c *Caches) Forget(doc *document.Document) {
	c.Photo.Cancel(doc)
	c.Photo.Invalidate(doc)
	c.Data.Cancel(doc)
	c.Data.Invalidate(doc)
	c.registry.remove(doc.Key())
}

// Trim releases every decoded photo, they are rebuilt from document data.
func (c *Caches) Trim() {
	n, weight := c.Photo.Len(), c.Photo.Weight()
	c.Photo.Purge()
	log.Info("photo cache trimmed", zap.Int("entries", n), zap.Int64("weightKB", weight))
}

func (c *Caches) Close() {
	c.Photo.Close()
	c.Data.Close()
}
