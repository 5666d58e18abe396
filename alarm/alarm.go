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

// Package alarm raises and cancels fault management alarms on behalf of the
// processor. Alarms are queued and handed to a Sink by a single goroutine,
// a failing Sink is logged and never reaches the caller.
package alarm

import (
	"context"
	"fmt"
	"time"
)

// ID identifies an alarm kind
type ID string

const (
	// NodeRebootRequest is raised for nodes that must be rebooted
	NodeRebootRequest ID = "45001"
	// ActivationFailed is raised when an activation failed
	ActivationFailed ID = "45002"
)

// Operation tells whether an alarm is raised or cancelled
type Operation int

const (
	// OperationRaise raises an alarm
	OperationRaise Operation = iota + 1
	// OperationCancel cancels an alarm
	OperationCancel
)

// String returns the operation name
func (o Operation) String() string {
	switch o {
	case OperationRaise:
		return "raise"
	case OperationCancel:
		return "cancel"
	default:
		return fmt.Sprintf("Operation(%d)", int(o))
	}
}

// MarshalText implements encoding.TextMarshaler
func (o Operation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (o *Operation) UnmarshalText(text []byte) error {
	switch string(text) {
	case "raise":
		*o = OperationRaise
	case "cancel":
		*o = OperationCancel
	default:
		return fmt.Errorf("unknown alarm operation %q", text)
	}
	return nil
}

// NodeDN returns the distinguished name of a node
func NodeDN(node string) string {
	return "NODE-" + node
}

// ServiceGroupDN returns the distinguished name of a service group
func ServiceGroupDN(group string) string {
	return "SG-" + group
}

// Event is one raise or cancel request
type Event struct {
	Operation     Operation      `json:"operation"`
	ID            ID             `json:"alarm_id"`
	DN            string         `json:"dn"`
	Supplementary map[string]any `json:"supplementary_info"`
	Time          time.Time      `json:"time"`
}

// String implements fmt.Stringer
func (e Event) String() string {
	return fmt.Sprintf("(%s %s %s %v)", e.Operation, e.ID, e.DN, e.Supplementary)
}

// Sink delivers alarm events to the fault management system
type Sink interface {
	Handle(ctx context.Context, event Event) error
}
