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

package doccache

import (
	"sync"

	"github.com/capturekit/capturekit/internal/document"
	"github.com/capturekit/capturekit/pkg/util/merr"
)

// registry resolves cache keys back to the documents loaders work on.
type registry struct {
	mu   sync.RWMutex
	docs map[document.Key]*document.Document
}

func newRegistry() *registry {
	return &registry{docs: make(map[document.Key]*document.Document)}
}

func (r *registry) add(doc *document.Document) document.Key {
	key := doc.Key()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[key] = doc
	return key
}

func (r *registry) lookup(key document.Key) (*document.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[key]
	if !ok {
		return nil, merr.WrapErrDocumentNoSource(key.ID)
	}
	return doc, nil
}

func (r *registry) remove(key document.Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, key)
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}
