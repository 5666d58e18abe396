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

package state

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	gerrors "github.com/tochemey/cmframework/errors"
	"github.com/tochemey/cmframework/log"
)

const (
	activationDomain = "cm.activation_status"
	fullFailedKey    = "full"
)

// ActivationState records which plugins failed the last full activation so
// that a startup activation only re-drives those
type ActivationState struct {
	store  Store
	logger log.Logger
}

// NewActivationState creates an instance of ActivationState
func NewActivationState(store Store, logger log.Logger) *ActivationState {
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &ActivationState{store: store, logger: logger}
}

// FullFailed returns the plugins that failed the last full activation.
// An undecodable record is logged and treated as empty.
func (a *ActivationState) FullFailed(ctx context.Context) ([]string, error) {
	raw, err := a.store.Get(ctx, activationDomain, fullFailedKey)
	if err != nil {
		if errors.Is(err, gerrors.ErrStateNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var plugins []string
	if err := json.Unmarshal([]byte(raw), &plugins); err != nil {
		a.logger.Warn(gerrors.NewConsistencyError("activation status", err))
		return nil, nil
	}
	return plugins, nil
}

// SetFullFailed records the plugins that failed a full activation
func (a *ActivationState) SetFullFailed(ctx context.Context, plugins []string) error {
	sorted := append([]string(nil), plugins...)
	sort.Strings(sorted)
	raw, err := json.Marshal(sorted)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, activationDomain, fullFailedKey, string(raw))
}

// ClearFullFailed forgets the last full activation failures
func (a *ActivationState) ClearFullFailed(ctx context.Context) error {
	err := a.store.Delete(ctx, activationDomain, fullFailedKey)
	if errors.Is(err, gerrors.ErrStateNotFound) {
		return nil
	}
	return err
}
