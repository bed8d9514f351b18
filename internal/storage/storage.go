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

package storage

import (
	"context"
	"net/url"
	"strings"

	"github.com/capturekit/capturekit/pkg/util/merr"
)

const (
	SchemeFile = "file"
	SchemeS3   = "s3"
)

// Reader reads the bytes a document uri points at.
//
//go:generate mockery --name=Reader --with-expecter --output=../mocks --outpkg=mocks --filename=mock_reader.go
type Reader interface {
	Read(ctx context.Context, uri string) ([]byte, error)
}

// Writer replaces the bytes a document uri points at.
//
//go:generate mockery --name=Writer --with-expecter --output=../mocks --outpkg=mocks --filename=mock_writer.go
type Writer interface {
	Write(ctx context.Context, uri string, data []byte) error
}

type ReadWriter interface {
	Reader
	Writer
}

// Location is a parsed document uri.
type Location struct {
	Scheme string
	// Bucket is set for s3 uris only.
	Bucket string
	Path   string
}

// ParseURI splits uri into scheme, bucket and path.
// Bare paths are file uris.
func ParseURI(uri string) (Location, error) {
	if uri == "" {
		return Location{}, merr.WrapErrParameterInvalidMsg("empty uri")
	}
	if !strings.Contains(uri, "://") {
		return Location{Scheme: SchemeFile, Path: uri}, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return Location{}, merr.WrapErrParameterInvalidMsg("malformed uri %s: %v", uri, err)
	}
	switch u.Scheme {
	case SchemeFile:
		return Location{Scheme: SchemeFile, Path: u.Path}, nil
	case SchemeS3:
		key := strings.TrimPrefix(u.Path, "/")
		if key == "" {
			return Location{}, merr.WrapErrParameterInvalidMsg("s3 uri %s has no object key", uri)
		}
		return Location{Scheme: SchemeS3, Bucket: u.Host, Path: key}, nil
	default:
		return Location{}, merr.WrapErrIoUnsupported(u.Scheme)
	}
}
