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

package paramtable

import (
	"strings"
	"sync"
)

const (
	// DefaultMaxRunning bounds concurrent loads of a cache.
	DefaultMaxRunning = 3
	// DefaultMemoryFraction is the share of the memory limit one cache may hold.
	DefaultMemoryFraction = 0.125
	// DefaultMaxMessageSize bounds a serialized document, 1MiB.
	DefaultMaxMessageSize = 1 << 20
)

// ComponentParam is used to quickly and easily access all components' configurations.
type ComponentParam struct {
	once      sync.Once
	baseTable *BaseTable

	CacheCfg      cacheConfig
	TokenStoreCfg tokenStoreConfig
	TransferCfg   transferConfig
	StorageCfg    storageConfig
	MinioCfg      minioConfig
	LogCfg        logConfig
}

// Init initialize once
func (p *ComponentParam) Init(bt *BaseTable) {
	p.once.Do(func() {
		p.init(bt)
	})
}

// init initialize the global param table
func (p *ComponentParam) init(bt *BaseTable) {
	p.baseTable = bt
	p.CacheCfg.init(bt)
	p.TokenStoreCfg.init(bt)
	p.TransferCfg.init(bt)
	p.StorageCfg.init(bt)
	p.MinioCfg.init(bt)
	p.LogCfg.init(bt)
}

// Save overrides key for the lifetime of the process.
func (p *ComponentParam) Save(key string, value string) error {
	return p.baseTable.Save(key, value)
}

func (p *ComponentParam) Reset(key string) error {
	return p.baseTable.Reset(key)
}

// /////////////////////////////////////////////////////////////////////////////
// --- cache ---
type ResourceCacheConfig struct {
	MemoryFraction ParamItem `refreshable:"false"`
	MaxRunning     ParamItem `refreshable:"false"`
	MaxQueue       ParamItem `refreshable:"false"`
}

func (p *ResourceCacheConfig) init(base *BaseTable, prefix string) {
	p.MemoryFraction = ParamItem{
		Key:          prefix + ".memoryFraction",
		Version:      "1.0.0",
		DefaultValue: "0.125",
		Doc:          "share of the memory limit the cache may hold, sized once at startup",
		Export:       true,
	}
	p.MemoryFraction.Init(base.mgr)

	p.MaxRunning = ParamItem{
		Key:          prefix + ".maxRunning",
		Version:      "1.0.0",
		DefaultValue: "3",
		Doc:          "max loads running at the same time",
		Export:       true,
	}
	p.MaxRunning.Init(base.mgr)

	p.MaxQueue = ParamItem{
		Key:          prefix + ".maxQueue",
		Version:      "1.0.0",
		DefaultValue: "0",
		Doc:          "max loads waiting for a slot, 0 means unbounded",
		Export:       true,
	}
	p.MaxQueue.Init(base.mgr)
}

type cacheConfig struct {
	DocumentData ResourceCacheConfig
	Photo        ResourceCacheConfig

	MinEntryWeightKB ParamItem `refreshable:"false"`
	TrimUsedRatio    ParamItem `refreshable:"true"`
}

func (p *cacheConfig) init(base *BaseTable) {
	p.DocumentData.init(base, "cache.documentData")
	p.Photo.init(base, "cache.photo")

	p.MinEntryWeightKB = ParamItem{
		Key:          "cache.minEntryWeightKB",
		Version:      "1.0.0",
		DefaultValue: "1",
		Doc:          "weight charged for entries smaller than this, in KB",
		Export:       true,
	}
	p.MinEntryWeightKB.Init(base.mgr)

	p.TrimUsedRatio = ParamItem{
		Key:          "cache.trimUsedRatio",
		Version:      "1.0.0",
		DefaultValue: "0.9",
		Doc:          "memory used ratio above which decoded photos are dropped",
		Export:       true,
	}
	p.TrimUsedRatio.Init(base.mgr)
}

// /////////////////////////////////////////////////////////////////////////////
// --- token store ---
type tokenStoreConfig struct {
	Expiry       ParamItem `refreshable:"false"`
	ReapInterval ParamItem `refreshable:"false"`
}

func (p *tokenStoreConfig) init(base *BaseTable) {
	p.Expiry = ParamItem{
		Key:          "tokenStore.expiry",
		Version:      "1.0.0",
		DefaultValue: "0s",
		Doc:          "tokens not consumed within this duration are dropped as leaked, 0 keeps them forever",
		Export:       true,
	}
	p.Expiry.Init(base.mgr)

	p.ReapInterval = ParamItem{
		Key:          "tokenStore.reapInterval",
		Version:      "1.0.0",
		DefaultValue: "60s",
		Export:       true,
	}
	p.ReapInterval.Init(base.mgr)
}

// /////////////////////////////////////////////////////////////////////////////
// --- transfer ---
type transferConfig struct {
	MaxMessageSize ParamItem `refreshable:"false"`
}

func (p *transferConfig) init(base *BaseTable) {
	p.MaxMessageSize = ParamItem{
		Key:          "transfer.maxMessageSize",
		Version:      "1.0.0",
		DefaultValue: "1048576",
		Doc:          "max size of one serialized document in bytes",
		Export:       true,
	}
	p.MaxMessageSize.Init(base.mgr)
}

// /////////////////////////////////////////////////////////////////////////////
// --- storage ---
type storageConfig struct {
	RootPath ParamItem `refreshable:"false"`
}

func (p *storageConfig) init(base *BaseTable) {
	p.RootPath = ParamItem{
		Key:          "storage.rootPath",
		Version:      "1.0.0",
		DefaultValue: "",
		Doc:          "root directory relative file uris resolve against",
		Export:       true,
	}
	p.RootPath.Init(base.mgr)
}

type minioConfig struct {
	Address         ParamItem `refreshable:"false"`
	AccessKeyID     ParamItem `refreshable:"false"`
	SecretAccessKey ParamItem `refreshable:"false"`
	UseSSL          ParamItem `refreshable:"false"`
	BucketName      ParamItem `refreshable:"false"`
}

func (p *minioConfig) init(base *BaseTable) {
	p.Address = ParamItem{
		Key:          "minio.address",
		Version:      "1.0.0",
		DefaultValue: "",
		Doc:          "minio endpoint, empty disables s3 uris",
		Export:       true,
	}
	p.Address.Init(base.mgr)

	p.AccessKeyID = ParamItem{
		Key:          "minio.accessKeyID",
		Version:      "1.0.0",
		DefaultValue: "",
		Export:       true,
	}
	p.AccessKeyID.Init(base.mgr)

	p.SecretAccessKey = ParamItem{
		Key:          "minio.secretAccessKey",
		Version:      "1.0.0",
		DefaultValue: "",
		Export:       true,
	}
	p.SecretAccessKey.Init(base.mgr)

	p.UseSSL = ParamItem{
		Key:          "minio.useSSL",
		Version:      "1.0.0",
		DefaultValue: "false",
		Export:       true,
	}
	p.UseSSL.Init(base.mgr)

	p.BucketName = ParamItem{
		Key:          "minio.bucketName",
		Version:      "1.0.0",
		DefaultValue: "",
		Doc:          "bucket used when an s3 uri has no bucket",
		Export:       true,
	}
	p.BucketName.Init(base.mgr)
}

// /////////////////////////////////////////////////////////////////////////////
// --- log ---
type logConfig struct {
	Level      ParamItem `refreshable:"false"`
	Format     ParamItem `refreshable:"false"`
	File       ParamItem `refreshable:"false"`
	MaxSize    ParamItem `refreshable:"false"`
	MaxBackups ParamItem `refreshable:"false"`
	MaxAge     ParamItem `refreshable:"false"`
}

func (p *logConfig) init(base *BaseTable) {
	p.Level = ParamItem{
		Key:          "log.level",
		Version:      "1.0.0",
		DefaultValue: "info",
		Doc:          "Only supports debug, info, warn, error, panic, or fatal. Default 'info'.",
		Formatter:    func(v string) string { return strings.ToLower(strings.TrimSpace(v)) },
		PanicIfEmpty: true,
		Export:       true,
	}
	p.Level.Init(base.mgr)

	p.Format = ParamItem{
		Key:          "log.format",
		Version:      "1.0.0",
		DefaultValue: "text",
		Doc:          "text or json",
		Export:       true,
	}
	p.Format.Init(base.mgr)

	p.File = ParamItem{
		Key:          "log.file.filename",
		Version:      "1.0.0",
		DefaultValue: "",
		Doc:          "log file, empty means stdout",
		Export:       true,
	}
	p.File.Init(base.mgr)

	p.MaxSize = ParamItem{
		Key:          "log.file.maxSize",
		Version:      "1.0.0",
		DefaultValue: "300",
		Doc:          "The maximum size of a single log file, unit: MB",
		Export:       true,
	}
	p.MaxSize.Init(base.mgr)

	p.MaxBackups = ParamItem{
		Key:          "log.file.maxBackups",
		Version:      "1.0.0",
		DefaultValue: "20",
		Doc:          "The maximum number of log files that can be retained.",
		Export:       true,
	}
	p.MaxBackups.Init(base.mgr)

	p.MaxAge = ParamItem{
		Key:          "log.file.maxAge",
		Version:      "1.0.0",
		DefaultValue: "10",
		Doc:          "The maximum number of days to retain log files.",
		Export:       true,
	}
	p.MaxAge.Init(base.mgr)
}
