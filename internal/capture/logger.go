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
	"go.uber.org/zap"

	"github.com/capturekit/capturekit/pkg/log"
	"github.com/capturekit/capturekit/pkg/util/paramtable"
)

// InitLogger replaces the global logger with one built from params.
func InitLogger(params *paramtable.ComponentParam) error {
	cfg := &log.Config{
		Level:  params.LogCfg.Level.GetValue(),
		Format: params.LogCfg.Format.GetValue(),
		File: log.FileLogConfig{
			Filename:   params.LogCfg.File.GetValue(),
			MaxSize:    params.LogCfg.MaxSize.GetAsInt(),
			MaxDays:    params.LogCfg.MaxAge.GetAsInt(),
			MaxBackups: params.LogCfg.MaxBackups.GetAsInt(),
		},
	}
	logger, props, err := log.InitLogger(cfg, zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	log.ReplaceGlobals(logger, props)
	return nil
}
