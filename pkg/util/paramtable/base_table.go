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
	"go.uber.org/zap"

	"github.com/capturekit/capturekit/pkg/config"
	"github.com/capturekit/capturekit/pkg/log"
)

const envPrefix = "CAPTUREKIT_"

var defaultYaml = []string{"capturekit.yaml", "user.yaml"}

// BaseTable the basics of paramtable
type BaseTable struct {
	mgr       *config.Manager
	YamlFiles []string
}

// NewBaseTable reads the given yaml files, the default ones when none given,
// and the CAPTUREKIT_ environment.
func NewBaseTable(yamlFiles ...string) *BaseTable {
	if len(yamlFiles) == 0 {
		yamlFiles = defaultYaml
	}
	gp := &BaseTable{YamlFiles: yamlFiles}
	gp.init()
	return gp
}

func (gp *BaseTable) init() {
	var err error
	gp.mgr, err = config.NewManager(config.NewEnvSource(envPrefix))
	if err != nil {
		log.Warn("init baseTable with env failed", zap.Error(err))
		gp.mgr, _ = config.NewManager()
	}
	err = gp.mgr.AddSource(config.NewFileSource(gp.YamlFiles...))
	if err != nil {
		log.Warn("init baseTable with file failed", zap.Strings("configFile", gp.YamlFiles), zap.Error(err))
	}
}

// Manager returns the underlying config manager.
func (gp *BaseTable) Manager() *config.Manager {
	return gp.mgr
}

// Get returns the value of key, "" when absent.
func (gp *BaseTable) Get(key string) string {
	value, err := gp.mgr.Get(key)
	if err != nil {
		return ""
	}
	return value
}

// Save saves an overlay value which shadows files and environment.
func (gp *BaseTable) Save(key, value string) error {
	gp.mgr.Set(key, value)
	return nil
}

func (gp *BaseTable) Reset(key string) error {
	gp.mgr.Reset(key)
	return nil
}
