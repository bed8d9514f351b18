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

func runTransfer(c *cli.Context) error {
	m := c.App.Metadata[componentsKey].(*metadata)
	uri := c.Args().First()
	if uri == "" {
		return cli.NewExitError("URI is required", 1)
	}

	doc := document.New(document.Options{URI: uri, Type: document.TypeImage})
	data, err := m.components.Caches.Data.Load(context.Background(), doc)
	if err != nil {
		return err
	}

	boundary := m.components.Boundary
	msg, err := boundary.Marshal(doc)
	if err != nil {
		return err
	}
	received, err := boundary.Unmarshal(msg)
	if err != nil {
		return err
	}

	out := struct {
		Document       string `json:"document"`
		DataSize       int    `json:"data_size"`
		MessageSize    int    `json:"message_size"`
		MaxMessageSize int    `json:"max_message_size"`
		Received       int    `json:"received_size"`
		TokensLeft     int    `json:"tokens_left"`
	}{
		Document:       received.ID(),
		DataSize:       len(data),
		MessageSize:    len(msg),
		MaxMessageSize: boundary.MaxMessageSize(),
		Received:       len(received.Data()),
		TokensLeft:     m.components.Tokens.Len(),
	}
	return printJSON(m.w, out)
}
