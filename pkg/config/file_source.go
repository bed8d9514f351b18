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

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/capturekit/capturekit/pkg/log"
)

// FileSource merges yaml files in order, later files override earlier ones.
// Missing files are skipped.
type FileSource struct {
	files []string
}

func NewFileSource(files ...string) *FileSource {
	return &FileSource{files: files}
}

func (fs *FileSource) Name() string { return "file" }

func (fs *FileSource) Priority() int { return PriorityFile }

func (fs *FileSource) Files() []string { return fs.files }

func (fs *FileSource) Load() (map[string]string, error) {
	out := make(map[string]string)
	for _, file := range fs.files {
		if _, err := os.Stat(file); err != nil {
			if os.IsNotExist(err) {
				log.Debug("config file not found, skip", zap.String("file", file))
				continue
			}
			return nil, err
		}
		v := viper.New()
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", file)
		}
		flatten("", v.AllSettings(), out)
	}
	return out, nil
}
