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

package capture

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/capturekit/capturekit/internal/cache"
	"github.com/capturekit/capturekit/internal/doccache"
	"github.com/capturekit/capturekit/internal/photo"
	"github.com/capturekit/capturekit/internal/storage"
	"github.com/capturekit/capturekit/internal/tokenstore"
	"github.com/capturekit/capturekit/internal/transfer"
	"github.com/capturekit/capturekit/pkg/log"
	"github.com/capturekit/capturekit/pkg/metrics"
	"github.com/capturekit/capturekit/pkg/util/hardware"
	"github.com/capturekit/capturekit/pkg/util/paramtable"
)

const (
	defaultWatchInterval = 10 * time.Second
	trimCooldown         = time.Minute
)

type options struct {
	watchInterval time.Duration
	watcherOpts   []hardware.WatcherOption
	codec         photo.Codec
}

type Option func(*options)

// WithWatchInterval sets how often memory usage is sampled.
func WithWatchInterval(interval time.Duration) Option {
	return func(o *options) {
		o.watchInterval = interval
	}
}

func WithWatcherOptions(opts ...hardware.WatcherOption) Option {
	return func(o *options) {
		o.watcherOpts = append(o.watcherOpts, opts...)
	}
}

func WithCodec(codec photo.Codec) Option {
	return func(o *options) {
		o.codec = codec
	}
}

// Components is the set of long lived objects of one process.
type Components struct {
	Registry *prometheus.Registry
	Tokens   *tokenstore.TokenStore
	Storage  *storage.Router
	Codec    photo.Codec
	Caches   *doccache.Caches
	Rotator  *doccache.Rotator
	Boundary *transfer.Boundary

	executor *cache.SerialExecutor
	watcher  *hardware.PressureWatcher
	stopTrim func()
}

// NewComponents builds every component from params.
func NewComponents(params *paramtable.ComponentParam, opts ...Option) (*Components, error) {
	o := &options{
		watchInterval: defaultWatchInterval,
		codec:         photo.NewJPEGCodec(photo.DefaultJPEGQuality),
	}
	for _, opt := range opts {
		opt(o)
	}

	registry := prometheus.NewRegistry()
	metrics.RegisterCacheMetrics(registry)

	router, err := newStorage(params)
	if err != nil {
		return nil, err
	}

	tokens := tokenstore.NewTokenStore(
		params.TokenStoreCfg.Expiry.GetAsDuration(time.Second),
		params.TokenStoreCfg.ReapInterval.GetAsDuration(time.Second),
	)
	boundary, err := transfer.NewBoundary(tokens, params.TransferCfg.MaxMessageSize.GetAsInt())
	if err != nil {
		return nil, err
	}

	executor := cache.NewSerialExecutor()
	cacheCfg := &params.CacheCfg
	caches, err := doccache.NewCaches(doccache.Config{
		Data:        cacheConfig(&cacheCfg.DocumentData),
		Photo:       cacheConfig(&cacheCfg.Photo),
		MinWeightKB: cacheCfg.MinEntryWeightKB.GetAsInt64(),
		Executor:    executor,
	}, router, o.codec)
	if err != nil {
		executor.Close()
		return nil, err
	}

	c := &Components{
		Registry: registry,
		Tokens:   tokens,
		Storage:  router,
		Codec:    o.codec,
		Caches:   caches,
		Rotator:  doccache.NewRotator(caches, o.codec, router),
		Boundary: boundary,
		executor: executor,
	}
	c.watchMemory(cacheCfg.TrimUsedRatio.GetAsFloat(), o)
	log.Info("components ready",
		zap.Int("cpus", hardware.GetCPUNum()),
		zap.Uint64("memoryLimit", hardware.GetMemoryLimit()),
		zap.Int64("dataCapacityKB", caches.Data.Capacity()),
		zap.Int64("photoCapacityKB", caches.Photo.Capacity()),
		zap.Int("maxMessageSize", boundary.MaxMessageSize()))
	return c, nil
}

func cacheConfig(p *paramtable.ResourceCacheConfig) doccache.CacheConfig {
	return doccache.CacheConfig{
		CapacityKB: hardware.MemoryBudgetKB(p.MemoryFraction.GetAsFloat()),
		MaxRunning: p.MaxRunning.GetAsInt(),
		MaxQueue:   p.MaxQueue.GetAsInt(),
	}
}

func newStorage(params *paramtable.ComponentParam) (*storage.Router, error) {
	router := storage.NewRouter()
	router.Register(storage.SchemeFile, storage.NewLocalStore(params.StorageCfg.RootPath.GetValue()))

	minioCfg := &params.MinioCfg
	if address := minioCfg.Address.GetValue(); address != "" {
		store, err := storage.NewMinioStore(storage.MinioConfig{
			Address:         address,
			AccessKeyID:     minioCfg.AccessKeyID.GetValue(),
			SecretAccessKey: minioCfg.SecretAccessKey.GetValue(),
			UseSSL:          minioCfg.UseSSL.GetAsBool(),
			BucketName:      minioCfg.BucketName.GetValue(),
		})
		if err != nil {
			log.Warn("failed to create minio store", zap.String("address", address), zap.Error(err))
			return nil, err
		}
		router.Register(storage.SchemeS3, store)
	}
	return router, nil
}

// watchMemory drops decoded photos when memory usage crosses ratio.
func (c *Components) watchMemory(ratio float64, o *options) {
	c.watcher = hardware.NewPressureWatcher(o.watchInterval, o.watcherOpts...)
	c.stopTrim = c.watcher.Subscribe(ratio, trimCooldown, func(usage hardware.MemoryUsage) {
		log.Warn("memory usage is high, trimming photo cache",
			zap.Stringer("memory", usage),
			zap.Float64("threshold", ratio))
		c.Caches.Trim()
	})
}

// Close stops the memory watcher and releases every cached entry.
func (c *Components) Close() {
	c.stopTrim()
	c.watcher.Close()
	c.Caches.Close()
	c.executor.Close()
	if n := c.Tokens.Len(); n > 0 {
		log.Warn("tokens left unconsumed at close", zap.Int("tokens", n))
	}
}
