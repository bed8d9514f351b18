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

package hardware

import (
	"math"
	"runtime"
	"runtime/debug"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"

	"github.com/capturekit/capturekit/pkg/log"
)

// GetCPUNum returns the number of logical CPUs.
func GetCPUNum() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		log.Warn("failed to get cpu counts, use runtime value", zap.Error(err))
		return runtime.NumCPU()
	}
	return n
}

// GetMemoryCount returns the memory available to this process in bytes:
// the container limit when one is set, otherwise the physical memory.
func GetMemoryCount() uint64 {
	total := getPhysicalMemory()
	limit, err := getContainerMemLimit()
	if err != nil {
		log.Debug("no container memory limit", zap.Error(err))
		return total
	}
	// unlimited cgroups report a number larger than the host memory
	if limit == 0 || (total > 0 && limit > total) {
		return total
	}
	return limit
}

// GetUsedMemoryCount returns the memory used in bytes,
// container usage first, then the whole host.
func GetUsedMemoryCount() uint64 {
	if used, err := getContainerMemUsed(); err == nil {
		return used
	}
	stats, err := mem.VirtualMemory()
	if err != nil {
		log.Warn("failed to get memory usage", zap.Error(err))
		return 0
	}
	return stats.Used
}

// GetMemoryLimit returns the memory bound caches should size themselves against.
// A Go runtime limit (GOMEMLIMIT or debug.SetMemoryLimit) wins over the
// container and host figures.
func GetMemoryLimit() uint64 {
	if limit := debug.SetMemoryLimit(-1); limit > 0 && limit != math.MaxInt64 {
		return uint64(limit)
	}
	return GetMemoryCount()
}

// MemoryBudgetKB returns fraction of GetMemoryLimit in kilobytes, at least 1.
func MemoryBudgetKB(fraction float64) int64 {
	budget := int64(float64(GetMemoryLimit()) * fraction / 1024)
	if budget < 1 {
		return 1
	}
	return budget
}

func getPhysicalMemory() uint64 {
	stats, err := mem.VirtualMemory()
	if err != nil {
		log.Warn("failed to get physical memory", zap.Error(err))
		return 0
	}
	return stats.Total
}
