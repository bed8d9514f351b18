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
	"os"
	"strings"
)

// EnvSource exposes environment variables carrying a prefix,
// CAPTUREKIT_CACHE_PHOTO_MAXRUNNING configures cache.photo.maxRunning.
type EnvSource struct {
	prefix string
}

func NewEnvSource(prefix string) *EnvSource {
	return &EnvSource{prefix: prefix}
}

func (es *EnvSource) Name() string { return "env" }

func (es *EnvSource) Priority() int { return PriorityEnv }

func (es *EnvSource) Load() (map[string]string, error) {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, es.prefix) {
			continue
		}
		key := normalizeKey(strings.TrimPrefix(name, es.prefix))
		if key == "" {
			continue
		}
		out[key] = value
	}
	return out, nil
}
