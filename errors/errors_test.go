// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	cause := errors.New("ntp server unreachable")

	validationErr := NewValidationError("timeplugin", cause)
	require.EqualError(t, validationErr, "validation failed in timeplugin: ntp server unreachable")
	assert.Equal(t, "timeplugin", validationErr.Plugin())
	assert.ErrorIs(t, validationErr, cause)

	consistencyErr := NewConsistencyError("csn", cause)
	require.EqualError(t, consistencyErr, "inconsistent csn: ntp server unreachable")
	assert.ErrorIs(t, consistencyErr, cause)
	require.EqualError(t, NewConsistencyError("snapshot metadata", nil), "inconsistent snapshot metadata")

	cycleErr := NewCycleError("b")
	require.EqualError(t, cycleErr, "cycle detected in dependencies (b)")
	assert.Equal(t, "b", cycleErr.Node())

	transportErr := NewTransportError(cause)
	require.EqualError(t, transportErr, "transport error: ntp server unreachable")
	assert.ErrorIs(t, transportErr, cause)

	panicErr := NewPanicError("oops")
	require.EqualError(t, panicErr, "panic: oops")
	panicErr = NewPanicError(cause)
	assert.ErrorIs(t, panicErr, cause)
}

func TestActivationFailure(t *testing.T) {
	failures := map[string]string{"ntp": "timeout", "dns": "bad zone"}
	err := NewActivationFailure(failures)
	require.EqualError(t, err, "activation failed for dns, ntp")

	failures["extra"] = "mutated"
	assert.Len(t, err.Failures(), 2)

	copied := err.Failures()
	copied["other"] = "x"
	assert.Len(t, err.Failures(), 2)
}
