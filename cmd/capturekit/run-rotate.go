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

	"github.com/samber/lo"
	"github.com/urfave/cli"

	"github.com/capturekit/capturekit/internal/document"
	"github.com/capturekit/capturekit/pkg/util/conc"
)

type rotateResult struct {
	URI      string `json:"uri"`
	Rotation int    `json:"rotation"`
	Error    string `json:"error,omitempty"`
}

func runRotate(c *cli.Context) error {
	m := c.App.Metadata[componentsKey].(*metadata)
	if c.NArg() == 0 {
		return cli.NewExitError("at least one URI is required", 1)
	}

	ctx := context.Background()
	degrees := c.Int("degrees")
	docs := lo.Map([]string(c.Args()), func(uri string, _ int) *document.Document {
		return document.New(document.Options{URI: uri, Type: document.TypeImage})
	})
	// rotations decode through the shared photo cache, which bounds them
	futures := lo.Map(docs, func(doc *document.Document, _ int) *conc.Future[struct{}] {
		return conc.Go(func() (struct{}, error) {
			return struct{}{}, m.components.Rotator.Rotate(ctx, doc, degrees)
		})
	})
	rotateErr := conc.BlockOnAll(futures...)

	results := make([]rotateResult, len(docs))
	for i, doc := range docs {
		results[i] = rotateResult{URI: doc.URI(), Rotation: doc.Rotation()}
		if err := futures[i].Err(); err != nil {
			results[i].Error = err.Error()
		}
	}
	if err := printJSON(m.w, results); err != nil {
		return err
	}
	return rotateErr
}
