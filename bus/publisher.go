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

	"github.com/tochemey/cmframework/activation"
	gerrors "github.com/tochemey/cmframework/errors"
)

// PublisherName is the handler name of the Publisher
const PublisherName = "remote"

// Publisher is an activation handler forwarding every work to the node agents.
// Delivery is fire and forget: node status reaches the controller through
// the node activation callback.
type Publisher struct {
	conn *Conn
}

var _ activation.Handler = (*Publisher)(nil)

// NewPublisher creates a Publisher on conn
func NewPublisher(conn *Conn) *Publisher {
	return &Publisher{conn: conn}
}

// Name returns the handler name
func (p *Publisher) Name() string {
	return PublisherName
}

// Activate publishes the work on the subject of its target
func (p *Publisher) Activate(_ context.Context, work *activation.Work) (map[string]string, error) {
	data, err := json.Marshal(work)
	if err != nil {
		return nil, gerrors.NewTransportError(err)
	}

	subject := ActivationSubject(work.Target)
	if err := p.conn.publish(subject, data); err != nil {
		return nil, err
	}

	p.conn.logger.Debugf("published %s on %s", work, subject)
	return nil, nil
}
