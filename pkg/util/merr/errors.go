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
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

const (
	retryableFlag = 1 << 16

	CanceledCode int32 = 10000
	TimeoutCode  int32 = 10001
)

// Leaf errors, grouped by area. Codes are stable once released,
// retriable ones carry retryableFlag.
var (
	// Service related
	ErrServiceNotReady             = newCapError("service not ready", 1, true)
	ErrServiceClosed               = newCapError("service closed", 2, false)
	ErrServiceRequestLimitExceeded = newCapError("request limit exceeded", 4, true)
	ErrServiceInternal             = newCapError("service internal error", 5, false)

	// Cache related
	ErrLoadFailed = newCapError("load failed", 100, true)
	ErrCanceled   = newCapError("load canceled", 101, false)

	// Token store related
	ErrTokenNotFound = newCapError("token not found", 200, false)

	// Transfer related
	ErrMessageTooLarge  = newCapError("message too large", 300, false)
	ErrMessageMalformed = newCapError("message malformed", 301, false)

	// Document related
	ErrDocumentNoSource = newCapError("document has no source", 400, false)
	ErrPhotoDecode      = newCapError("photo decode failed", 401, false)
	ErrPhotoEncode      = newCapError("photo encode failed", 402, false)

	// IO related
	ErrIoKeyNotFound = newCapError("key not found", 1000, false)
	ErrIoFailed      = newCapError("IO failed", 1001, true)
	ErrIoUnsupported = newCapError("unsupported uri scheme", 1002, false)

	// Parameter related
	ErrParameterInvalid = newCapError("invalid parameter", 1100, false)

	// code of anything not raised by this package
	errUnexpected = newCapError("unexpected error", (1<<16)-1, false)
)

type capError struct {
	msg     string
	errCode int32
}

func newCapError(msg string, code int32, retriable bool) capError {
	if retriable {
		code |= retryableFlag
	}
	return capError{
		msg:     msg,
		errCode: code,
	}
}

func (e capError) code() int32 {
	return e.errCode
}

func (e capError) Error() string {
	return e.msg
}

func (e capError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(capError); ok {
		return e.errCode == cause.errCode
	}
	return false
}

// combined keeps every error reachable by errors.Is,
// its cause, and therefore its code, is the last one.
type combined struct {
	errs []error
}

func (e combined) Error() string {
	return strings.Join(lo.Map(e.errs, func(err error, _ int) string { return err.Error() }), ": ")
}

func (e combined) Cause() error {
	return e.errs[len(e.errs)-1]
}

func (e combined) Unwrap() []error {
	return e.errs
}

func (e combined) Is(target error) bool {
	return lo.ContainsBy(e.errs, func(err error) bool { return errors.Is(err, target) })
}

// Combine joins the non nil errors, nil when none is left.
func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	return combined{errs: errs}
}
