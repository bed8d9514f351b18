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

package merr

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
)

// Code returns the error code of the given error,
// WARN: DO NOT use this for now
func Code(err error) int32 {
	if err == nil {
		return 0
	}

	cause := errors.Cause(err)
	switch cause := cause.(type) {
	case capError:
		return cause.code()

	default:
		if errors.Is(cause, context.Canceled) {
			return CanceledCode
		} else if errors.Is(cause, context.DeadlineExceeded) {
			return TimeoutCode
		} else {
			return errUnexpected.code()
		}
	}
}

func IsRetryableErr(err error) bool {
	if err, ok := err.(capError); ok {
		return err.code()&retryableFlag != 0
	}

	cause := errors.Cause(err)
	if cause, ok := cause.(capError); ok {
		return cause.code()&retryableFlag != 0
	}
	return false
}

// IsCanceled reports whether err means the operation was canceled,
// either by Cancel on a cache or by a context.
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled)
}

// Service related
func WrapErrServiceClosed(name string, msg ...string) error {
	err := wrapFields(ErrServiceClosed, value("service", name))
	if len(msg) > 0 {
		err = errors.Wrap(err, msg[0])
	}
	return err
}

func WrapErrServiceRequestLimitExceeded(limit int, msg ...string) error {
	err := wrapFields(ErrServiceRequestLimitExceeded, value("limit", limit))
	if len(msg) > 0 {
		err = errors.Wrap(err, msg[0])
	}
	return err
}

func WrapErrServiceInternal(reason string, msg ...string) error {
	err := wrapFields(ErrServiceInternal, value("reason", reason))
	if len(msg) > 0 {
		err = errors.Wrap(err, msg[0])
	}
	return err
}

// Cache related

// WrapErrLoadFailed keeps cause reachable through errors.Is,
// so callers can still match the storage or decode error underneath.
func WrapErrLoadFailed(cause error, key any) error {
	err := wrapFields(ErrLoadFailed, value("key", key))
	if cause == nil {
		return err
	}
	return Combine(cause, err)
}

func WrapErrCanceled(key any, msg ...string) error {
	err := wrapFields(ErrCanceled, value("key", key))
	if len(msg) > 0 {
		err = errors.Wrap(err, msg[0])
	}
	return err
}

// Token store related
func WrapErrTokenNotFound(token string) error {
	return wrapFields(ErrTokenNotFound, value("token", token))
}

// Transfer related
func WrapErrMessageTooLarge(size, limit int) error {
	return wrapFields(ErrMessageTooLarge, value("size", size), value("limit", limit))
}

func WrapErrMessageMalformed(reason string, msg ...string) error {
	err := wrapFields(ErrMessageMalformed, value("reason", reason))
	if len(msg) > 0 {
		err = errors.Wrap(err, msg[0])
	}
	return err
}

// Document related
func WrapErrDocumentNoSource(id string) error {
	return wrapFields(ErrDocumentNoSource, value("document", id))
}

func WrapErrPhotoDecode(cause error) error {
	return errors.Wrap(ErrPhotoDecode, cause.Error())
}

func WrapErrPhotoEncode(cause error) error {
	return errors.Wrap(ErrPhotoEncode, cause.Error())
}

// IO related
func WrapErrIoKeyNotFound(key string, msg ...string) error {
	err := errors.Wrapf(ErrIoKeyNotFound, "key=%s", key)
	if len(msg) > 0 {
		err = errors.Wrap(err, msg[0])
	}
	return err
}

func WrapErrIoFailed(key string, err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(ErrIoFailed, "key=%s: %v", key, err)
}

func WrapErrIoUnsupported(scheme string) error {
	return wrapFields(ErrIoUnsupported, value("scheme", scheme))
}

// Parameter related
func WrapErrParameterInvalid[T any](expected, actual T, msg ...string) error {
	err := errors.Wrapf(ErrParameterInvalid, "expected=%v, actual=%v", expected, actual)
	if len(msg) > 0 {
		err = errors.Wrap(err, msg[0])
	}
	return err
}

func WrapErrParameterInvalidMsg(fmt string, args ...any) error {
	return errors.Wrapf(ErrParameterInvalid, fmt, args...)
}

type errorField interface {
	String() string
}

type valueField struct {
	name  string
	value any
}

func value(name string, value any) valueField {
	return valueField{
		name,
		value,
	}
}

func (f valueField) String() string {
	return fmt.Sprintf("%s=%v", f.name, f.value)
}

func wrapFields(err capError, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	return err
}
