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

package main

import (
	"context"

	"github.com/urfave/cli"

	"github.com/capturekit/capturekit/internal/document"
)

type warmResult struct {
	URI    string `json:"uri"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Error  string `json:"error,omitempty"`
}

func runWarm(c *cli.Context) error {
	m := c.App.Metadata[componentsKey].(*metadata)
	if c.NArg() == 0 {
		return cli.NewExitError("at least one URI is required", 1)
	}

	docs := make([]*document.Document, 0, c.NArg())
	for _, uri := range c.Args() {
		docs = append(docs, document.New(document.Options{URI: uri, Type: document.TypeImage}))
	}

	ctx := context.Background()
	caches := m.components.Caches
	warmErr := caches.Photo.Warm(ctx, docs...)

	results := make([]warmResult, 0, len(docs))
	for _, doc := range docs {
		res := warmResult{URI: doc.URI()}
		p, err := caches.Photo.Load(ctx, doc)
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Width, res.Height = p.Width(), p.Height()
		}
		results = append(results, res)
	}
	if err := printJSON(m.w, results); err != nil {
		return err
	}
	return warmErr
}
