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
	"time"

	"github.com/spf13/cast"

	"github.com/capturekit/capturekit/pkg/config"
)

type ParamItem struct {
	Key          string // which should be named as "A.B.C"
	Version      string
	Doc          string
	DefaultValue string
	FallbackKeys []string
	PanicIfEmpty bool
	Export       bool

	Formatter func(originValue string) string

	manager *config.Manager
}

func (pi *ParamItem) Init(manager *config.Manager) {
	pi.manager = manager
}

// get resolves the key, then its fallbacks, then the default. Items never
// bound to a manager resolve to their default.
func (pi *ParamItem) get() (string, error) {
	ret, err := pi.lookup()
	if err != nil {
		ret = pi.DefaultValue
	}
	if pi.Formatter != nil {
		ret = pi.Formatter(ret)
	}
	if ret == "" && pi.PanicIfEmpty {
		panic(pi.Key + " is empty")
	}
	return ret, nil
}

func (pi *ParamItem) lookup() (string, error) {
	if pi.manager == nil {
		return "", config.ErrKeyNotFound
	}
	ret, err := pi.manager.Get(pi.Key)
	for _, key := range pi.FallbackKeys {
		if err == nil {
			break
		}
		ret, err = pi.manager.Get(key)
	}
	return ret, err
}

func (pi *ParamItem) GetValue() string {
	v, _ := pi.get()
	return v
}

func (pi *ParamItem) GetAsStrings() []string {
	v := pi.GetValue()
	if v == "" {
		return nil
	}
	return strings.Split(v, ",")
}

func (pi *ParamItem) GetAsBool() bool {
	return getAsBool(pi.GetValue(), pi.DefaultValue)
}

func (pi *ParamItem) GetAsInt() int {
	return getAsInt(pi.GetValue(), pi.DefaultValue)
}

func (pi *ParamItem) GetAsInt64() int64 {
	return getAsInt64(pi.GetValue(), pi.DefaultValue)
}

func (pi *ParamItem) GetAsFloat() float64 {
	return getAsFloat(pi.GetValue(), pi.DefaultValue)
}

// GetAsDuration accepts "30s" style values, or a bare number counted in unit.
func (pi *ParamItem) GetAsDuration(unit time.Duration) time.Duration {
	v := pi.GetValue()
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if f, err := cast.ToFloat64E(v); err == nil {
		return time.Duration(f * float64(unit))
	}
	d, _ := time.ParseDuration(pi.DefaultValue)
	return d
}

func getAsBool(v, fallback string) bool {
	ret, err := cast.ToBoolE(v)
	if err != nil {
		return cast.ToBool(fallback)
	}
	return ret
}

func getAsInt(v, fallback string) int {
	ret, err := cast.ToIntE(v)
	if err != nil {
		return cast.ToInt(fallback)
	}
	return ret
}

func getAsInt64(v, fallback string) int64 {
	ret, err := cast.ToInt64E(v)
	if err != nil {
		return cast.ToInt64(fallback)
	}
	return ret
}

func getAsFloat(v, fallback string) float64 {
	ret, err := cast.ToFloat64E(v)
	if err != nil {
		return cast.ToFloat64(fallback)
	}
	return ret
}
