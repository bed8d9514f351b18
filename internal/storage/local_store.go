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
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/capturekit/capturekit/pkg/util/merr"
)

// LocalStore reads and writes file uris, relative paths resolve under root.
type LocalStore struct {
	root string
}

var _ ReadWriter = (*LocalStore)(nil)

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (ls *LocalStore) resolve(uri string) (string, error) {
	loc, err := ParseURI(uri)
	if err != nil {
		return "", err
	}
	if loc.Scheme != SchemeFile {
		return "", merr.WrapErrIoUnsupported(loc.Scheme)
	}
	if filepath.IsAbs(loc.Path) || ls.root == "" {
		return filepath.Clean(loc.Path), nil
	}
	return filepath.Join(ls.root, loc.Path), nil
}

// Read returns the content of the file uri points at.
func (ls *LocalStore) Read(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	absPath, err := ls.resolve(uri)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(absPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, merr.WrapErrIoKeyNotFound(uri)
		}
		return nil, merr.WrapErrIoFailed(uri, err)
	}
	return content, nil
}

// Write replaces the file uri points at, readers never see a partial file.
func (ls *LocalStore) Write(ctx context.Context, uri string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	absPath, err := ls.resolve(uri)
	if err != nil {
		return err
	}
	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return merr.WrapErrIoFailed(uri, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(absPath)+".*.tmp")
	if err != nil {
		return merr.WrapErrIoFailed(uri, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return merr.WrapErrIoFailed(uri, err)
	}
	if err := tmp.Close(); err != nil {
		return merr.WrapErrIoFailed(uri, err)
	}
	if err := os.Rename(tmp.Name(), absPath); err != nil {
		return merr.WrapErrIoFailed(uri, err)
	}
	return nil
}
