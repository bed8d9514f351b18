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

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	capturekitNamespace = "capturekit"

	subsystemCache      = "cache"
	subsystemTokenStore = "token_store"

	cacheNameLabelName = "cache_name"
	statusLabelName    = "status"
	reasonLabelName    = "reason"

	SuccessLabel  = "success"
	FailLabel     = "fail"
	CanceledLabel = "canceled"
	StaleLabel    = "stale"

	EvictedLabel     = "evicted"
	InvalidatedLabel = "invalidated"
	PurgedLabel      = "purged"
)

// Handler exposes the metrics of registry over http.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
