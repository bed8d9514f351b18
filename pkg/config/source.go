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

package config

import (
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/capturekit/capturekit/pkg/log"
)

// ErrKeyNotFound is returned when no source nor overlay carries a key.
var ErrKeyNotFound = errors.New("key not found")

// Source priorities, a lower value wins.
const (
	PriorityEnv  = 1
	PriorityFile = 11
)

// Source produces a snapshot of flattened key/value configurations.
type Source interface {
	Name() string
	Priority() int
	Load() (map[string]string, error)
}

var normalized sync.Map

// normalizeKey folds a key into the form shared by every source:
// "cache.documentData.maxRunning" and "CACHE_DOCUMENTDATA_MAXRUNNING"
// both become "cachedocumentdatamaxrunning".
func normalizeKey(key string) string {
	if cached, ok := normalized.Load(key); ok {
		return cached.(string)
	}
	result := keyFolder.Replace(strings.ToLower(key))
	normalized.Store(key, result)
	return result
}

var keyFolder = strings.NewReplacer("/", "", "_", "", ".", "")

// flatten walks a nested yaml document and writes every leaf under its
// dotted path, lists are joined with commas.
func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(path, val, out)
		case map[any]any:
			flatten(path, cast.ToStringMap(val), out)
		case []any:
			out[normalizeKey(path)] = strings.Join(cast.ToStringSlice(val), ",")
		default:
			str, err := cast.ToStringE(val)
			if err != nil {
				log.Warn("skip config value", zap.String("key", path), zap.Error(err))
				continue
			}
			out[normalizeKey(path)] = str
		}
	}
}
