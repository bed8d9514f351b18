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
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	CacheHitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: capturekitNamespace,
			Subsystem: subsystemCache,
			Name:      "hit_total",
			Help:      "Total number of requests served from memory.",
		}, []string{
			cacheNameLabelName,
		})

	CacheMissTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: capturekitNamespace,
			Subsystem: subsystemCache,
			Name:      "miss_total",
			Help:      "Total number of requests which had to wait for a load.",
		}, []string{
			cacheNameLabelName,
		})

	CacheLoadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: capturekitNamespace,
			Subsystem: subsystemCache,
			Name:      "load_total",
			Help:      "Total number of finished loads by outcome.",
		}, []string{
			cacheNameLabelName,
			statusLabelName,
		})

	CacheLoadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: capturekitNamespace,
			Subsystem: subsystemCache,
			Name:      "load_duration_seconds",
			Help:      "Histogram of loader duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{
			cacheNameLabelName,
		})

	CacheReleaseTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: capturekitNamespace,
			Subsystem: subsystemCache,
			Name:      "release_total",
			Help:      "Total number of entries handed to the release hook by reason.",
		}, []string{
			cacheNameLabelName,
			reasonLabelName,
		})

	CacheWeightKB = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: capturekitNamespace,
			Subsystem: subsystemCache,
			Name:      "weight_kb",
			Help:      "Total weight of resident entries in KB.",
		}, []string{
			cacheNameLabelName,
		})

	CacheEntryNum = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: capturekitNamespace,
			Subsystem: subsystemCache,
			Name:      "entry_num",
			Help:      "Number of resident entries.",
		}, []string{
			cacheNameLabelName,
		})

	CachePendingLoadNum = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: capturekitNamespace,
			Subsystem: subsystemCache,
			Name:      "pending_load_num",
			Help:      "Number of loads running or queued.",
		}, []string{
			cacheNameLabelName,
		})

	CacheQueuedLoadNum = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: capturekitNamespace,
			Subsystem: subsystemCache,
			Name:      "queued_load_num",
			Help:      "Number of loads waiting for a free worker.",
		}, []string{
			cacheNameLabelName,
		})

	TokenStoreOutstandingNum = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: capturekitNamespace,
			Subsystem: subsystemTokenStore,
			Name:      "outstanding_num",
			Help:      "Number of tokens stored and not yet removed.",
		})

	TokenStoreLeakedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: capturekitNamespace,
			Subsystem: subsystemTokenStore,
			Name:      "leaked_total",
			Help:      "Total number of tokens dropped by expiry instead of being consumed.",
		})
)

var registerOnce sync.Once

// RegisterCacheMetrics registers the cache and token store metrics.
func RegisterCacheMetrics(registry *prometheus.Registry) {
	registerOnce.Do(func() {
		registry.MustRegister(CacheHitTotal)
		registry.MustRegister(CacheMissTotal)
		registry.MustRegister(CacheLoadTotal)
		registry.MustRegister(CacheLoadDuration)
		registry.MustRegister(CacheReleaseTotal)
		registry.MustRegister(CacheWeightKB)
		registry.MustRegister(CacheEntryNum)
		registry.MustRegister(CachePendingLoadNum)
		registry.MustRegister(CacheQueuedLoadNum)
		registry.MustRegister(TokenStoreOutstandingNum)
		registry.MustRegister(TokenStoreLeakedTotal)
	})
}

// CleanupCacheMetrics drops the series of a closed cache.
func CleanupCacheMetrics(cacheName string) {
	labels := prometheus.Labels{cacheNameLabelName: cacheName}
	CacheHitTotal.DeletePartialMatch(labels)
	CacheMissTotal.DeletePartialMatch(labels)
	CacheLoadTotal.DeletePartialMatch(labels)
	CacheLoadDuration.DeletePartialMatch(labels)
	CacheReleaseTotal.DeletePartialMatch(labels)
	CacheWeightKB.DeletePartialMatch(labels)
	CacheEntryNum.DeletePartialMatch(labels)
	CachePendingLoadNum.DeletePartialMatch(labels)
	CacheQueuedLoadNum.DeletePartialMatch(labels)
}
