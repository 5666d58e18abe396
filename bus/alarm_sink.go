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

package bus

import (
	"context"
	"encoding/json"

	"github.com/tochemey/cmframework/alarm"
)

// AlarmSink publishes alarm events as JSON on AlarmSubject
type AlarmSink struct {
	conn *Conn
}

var _ alarm.Sink = (*AlarmSink)(nil)

// NewAlarmSink creates an AlarmSink on conn
func NewAlarmSink(conn *Conn) *AlarmSink {
	return &AlarmSink{conn: conn}
}

// Handle publishes the event
func (s *AlarmSink) Handle(_ context.Context, event alarm.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.conn.publish(AlarmSubject, data)
}
