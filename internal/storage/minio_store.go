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
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/capturekit/capturekit/pkg/util/merr"
)

// MinioConfig holds the connection settings of a MinioStore.
type MinioConfig struct {
	Address         string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	// BucketName serves s3 uris without a bucket, like s3:///key
	BucketName string
}

// MinioStore reads and writes s3://bucket/key uris.
type MinioStore struct {
	client        *minio.Client
	defaultBucket string
}

var _ ReadWriter = (*MinioStore)(nil)

func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	if cfg.Address == "" {
		return nil, merr.WrapErrParameterInvalidMsg("minio address is empty")
	}
	client, err := minio.New(cfg.Address, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStore{
		client:        client,
		defaultBucket: cfg.BucketName,
	}, nil
}

func (ms *MinioStore) locate(uri string) (bucket, key string, err error) {
	loc, err := ParseURI(uri)
	if err != nil {
		return "", "", err
	}
	if loc.Scheme != SchemeS3 {
		return "", "", merr.WrapErrIoUnsupported(loc.Scheme)
	}
	bucket = loc.Bucket
	if bucket == "" {
		bucket = ms.defaultBucket
	}
	if bucket == "" {
		return "", "", merr.WrapErrParameterInvalidMsg("no bucket for %s", uri)
	}
	return bucket, loc.Path, nil
}

func (ms *MinioStore) Read(ctx context.Context, uri string) ([]byte, error) {
	bucket, key, err := ms.locate(uri)
	if err != nil {
		return nil, err
	}
	object, err := ms.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, checkObjectStorageError(uri, err)
	}
	defer object.Close()
	data, err := io.ReadAll(object)
	if err != nil {
		return nil, checkObjectStorageError(uri, err)
	}
	return data, nil
}

func (ms *MinioStore) Write(ctx context.Context, uri string, data []byte) error {
	bucket, key, err := ms.locate(uri)
	if err != nil {
		return err
	}
	_, err = ms.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	return checkObjectStorageError(uri, err)
}

func checkObjectStorageError(uri string, err error) error {
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return merr.WrapErrIoKeyNotFound(uri, err.Error())
	}
	return merr.WrapErrIoFailed(uri, err)
}
