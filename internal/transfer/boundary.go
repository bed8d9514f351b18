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

package transfer

import (
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/capturekit/capturekit/internal/document"
	"github.com/capturekit/capturekit/internal/tokenstore"
	"github.com/capturekit/capturekit/pkg/log"
	"github.com/capturekit/capturekit/pkg/util/merr"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// envelope is the wire form of a document. Its bytes never travel inline,
// Token names them in the TokenStore instead.
type envelope struct {
	ID         string        `json:"id"`
	Type       document.Type `json:"type"`
	MIMEType   string        `json:"mimeType,omitempty"`
	URI        string        `json:"uri,omitempty"`
	Reviewable bool          `json:"reviewable,omitempty"`
	Imported   bool          `json:"imported,omitempty"`
	Rotation   int           `json:"rotation,omitempty"`
	Token      string        `json:"token,omitempty"`
}

// Boundary serializes documents for a channel that limits message size.
type Boundary struct {
	tokens         *tokenstore.TokenStore
	maxMessageSize int
}

func NewBoundary(tokens *tokenstore.TokenStore, maxMessageSize int) (*Boundary, error) {
	if tokens == nil {
		return nil, merr.WrapErrParameterInvalidMsg("token store is nil")
	}
	if maxMessageSize <= 0 {
		return nil, merr.WrapErrParameterInvalidMsg("positive max message size, got %d", maxMessageSize)
	}
	return &Boundary{
		tokens:         tokens,
		maxMessageSize: maxMessageSize,
	}, nil
}

// Marshal encodes doc, moving its in-memory data to the token store.
// The token is only left behind when a message is returned.
func (b *Boundary) Marshal(doc *document.Document) ([]byte, error) {
	key := doc.Key()
	env := envelope{
		ID:         key.ID,
		Type:       key.Type,
		MIMEType:   key.MIMEType,
		URI:        key.URI,
		Reviewable: key.Reviewable,
		Imported:   key.Imported,
		Rotation:   doc.Rotation(),
	}
	if data := doc.Data(); data != nil {
		env.Token = b.tokens.Store(data).String()
	}

	msg, err := json.Marshal(&env)
	if err == nil && len(msg) > b.maxMessageSize {
		err = merr.WrapErrMessageTooLarge(len(msg), b.maxMessageSize)
	}
	if err != nil {
		if env.Token != "" {
			b.tokens.Remove(tokenstore.Token(env.Token))
		}
		log.Warn("failed to marshal document", zap.String("document", key.ID), zap.Error(err))
		return nil, err
	}
	return msg, nil
}

// Unmarshal decodes a message built by Marshal and takes its data out of
// the token store. Each message can be unmarshalled once.
func (b *Boundary) Unmarshal(msg []byte) (*document.Document, error) {
	if len(msg) > b.maxMessageSize {
		return nil, merr.WrapErrMessageTooLarge(len(msg), b.maxMessageSize)
	}
	var env envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return nil, merr.WrapErrMessageMalformed(err.Error())
	}
	if env.ID == "" {
		return nil, merr.WrapErrMessageMalformed("missing document id")
	}

	var data []byte
	if env.Token != "" {
		var err error
		data, err = b.tokens.FetchAndRemove(tokenstore.Token(env.Token))
		if err != nil {
			return nil, err
		}
	}
	return document.New(document.Options{
		ID:         env.ID,
		URI:        env.URI,
		Type:       env.Type,
		MIMEType:   env.MIMEType,
		Reviewable: env.Reviewable,
		Imported:   env.Imported,
		Data:       data,
		Rotation:   env.Rotation,
	}), nil
}

func (b *Boundary) MaxMessageSize() int {
	return b.maxMessageSize
}
