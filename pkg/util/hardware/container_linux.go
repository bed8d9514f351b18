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

//go:build linux

package hardware

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/containerd/cgroups/v3"
	"github.com/containerd/cgroups/v3/cgroup1"
	"github.com/containerd/cgroups/v3/cgroup2"
	"k8s.io/apimachinery/pkg/api/resource"
)

// containerMemory is the memory view of the cgroup this process runs in.
type containerMemory struct {
	limit uint64
	used  uint64
}

func readCgroupV1() (containerMemory, error) {
	manager, err := cgroup1.Load(cgroup1.StaticPath("/"))
	if err != nil {
		return containerMemory{}, err
	}
	stats, err := manager.Stat(cgroup1.IgnoreNotExist)
	if err != nil {
		return containerMemory{}, err
	}
	memory := stats.GetMemory()
	if memory == nil || memory.GetUsage() == nil {
		return containerMemory{}, errors.New("cannot find memory usage info from cGroupsv1")
	}
	return containerMemory{
		limit: memory.GetUsage().GetLimit(),
		used:  memory.GetUsage().GetUsage() - memory.GetTotalInactiveFile(),
	}, nil
}

func readCgroupV2() (containerMemory, error) {
	manager, err := cgroup2.Load("/")
	if err != nil {
		return containerMemory{}, err
	}
	stats, err := manager.Stat()
	if err != nil {
		return containerMemory{}, err
	}
	memory := stats.GetMemory()
	if memory == nil {
		return containerMemory{}, errors.New("cannot find memory usage info from cGroupsv2")
	}
	return containerMemory{
		limit: memory.GetUsageLimit(),
		used:  memory.GetUsage() - memory.GetInactiveFile(),
	}, nil
}

func readContainerMemory() (containerMemory, error) {
	if cgroups.Mode() == cgroups.Unified {
		return readCgroupV2()
	}
	return readCgroupV1()
}

// getContainerMemLimit returns the memory limit of the container.
// MEM_LIMIT overrides whatever the cgroup reports, e.g. "2Gi" or "512M".
func getContainerMemLimit() (uint64, error) {
	if memoryStr := os.Getenv("MEM_LIMIT"); memoryStr != "" {
		memQuantity, err := resource.ParseQuantity(memoryStr)
		if err != nil {
			return 0, err
		}
		return uint64(memQuantity.Value()), nil
	}

	mem, err := readContainerMemory()
	if err != nil {
		return 0, err
	}
	return mem.limit, nil
}

// getContainerMemUsed returns memory usage without inactive page cache,
// the same figure docker stats reports.
func getContainerMemUsed() (uint64, error) {
	mem, err := readContainerMemory()
	if err != nil {
		return 0, err
	}
	return mem.used, nil
}
