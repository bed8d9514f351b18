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

// Package cache keeps expensive values in memory under a weight budget.
//
// A ResourceCache couples an EntryStore, the weighted LRU holding resident
// values, with a WorkerPool that loads missing ones. Concurrent requests for
// one key share a single load, at most MaxRunning loads run at once and the
// rest wait in FIFO order. Completion callbacks run on an Executor, never on
// the loader goroutine.
//
// Lock order is WorkerPool then EntryStore. Release hooks run under the
// EntryStore lock and must not call back into the cache.
package cache
