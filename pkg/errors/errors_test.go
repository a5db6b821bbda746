/*
 * Copyright 2025 The GarageDocs Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package errors_test

import (
	goerrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/garagedocs-team/garagedocs/pkg/errors"
)

func TestStatusErrors(t *testing.T) {
	t.Run("status and message test", func(t *testing.T) {
		err := errors.NotFound("owner not found")
		assert.Equal(t, "owner not found", err.Error())
		assert.Equal(t, errors.ErrCodeNotFound, err.Status())
		assert.Equal(t, "", err.Code())
	})

	t.Run("with code test", func(t *testing.T) {
		err := errors.Unavailable("bridge not available").WithCode("ErrBridgeUnavailable")
		assert.Equal(t, "ErrBridgeUnavailable", err.Code())
		assert.Equal(t, errors.ErrCodeUnavailable, err.Status())
		assert.Equal(t, "ErrBridgeUnavailable", errors.CodeOf(err))
	})

	t.Run("status of wrapped error test", func(t *testing.T) {
		base := errors.FailedPrecond("owner modified during sync")
		wrapped := fmt.Errorf("sync owner: %w", base)

		assert.Equal(t, errors.ErrCodeFailedPrecondition, errors.StatusOf(wrapped))
		assert.True(t, errors.IsStatus(wrapped, errors.ErrCodeFailedPrecondition))
		assert.True(t, goerrors.Is(wrapped, base))
	})

	t.Run("status of plain error test", func(t *testing.T) {
		assert.Equal(t, errors.StatusCode(0), errors.StatusOf(goerrors.New("plain")))
		assert.Equal(t, errors.StatusCode(0), errors.StatusOf(nil))
		assert.Equal(t, "", errors.CodeOf(goerrors.New("plain")))
	})

	t.Run("client and server classification test", func(t *testing.T) {
		assert.True(t, errors.ErrCodeInvalidArgument.IsClientError())
		assert.False(t, errors.ErrCodeInvalidArgument.IsServerError())
		assert.True(t, errors.ErrCodeUnavailable.IsServerError())
		assert.False(t, errors.ErrCodeUnavailable.IsClientError())
	})

	t.Run("status code string test", func(t *testing.T) {
		assert.Equal(t, "not_found", errors.ErrCodeNotFound.String())
		assert.Equal(t, "unavailable", errors.ErrCodeUnavailable.String())
		assert.Equal(t, "code_99", errors.StatusCode(99).String())
	})
}
