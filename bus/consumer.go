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
	"sync"

	"github.com/nats-io/nats.go"
	"go.uber.org/multierr"

	"github.com/tochemey/cmframework/activation"
	gerrors "github.com/tochemey/cmframework/errors"
)

// WorkConsumer handles the works received from the controller
type WorkConsumer interface {
	Consume(ctx context.Context, work *activation.Work) error
}

// WorkConsumerFunc adapts a function to the WorkConsumer interface
type WorkConsumerFunc func(ctx context.Context, work *activation.Work) error

// Consume calls f
func (f WorkConsumerFunc) Consume(ctx context.Context, work *activation.Work) error {
	return f(ctx, work)
}

// Consumer receives the works addressed to a node and to every node
type Consumer struct {
	conn     *Conn
	node     string
	consumer WorkConsumer

	mu            sync.Mutex
	subscriptions []*nats.Subscription
}

// NewConsumer creates a Consumer for node
func NewConsumer(conn *Conn, node string, consumer WorkConsumer) *Consumer {
	return &Consumer{
		conn:     conn,
		node:     node,
		consumer: consumer,
	}
}

// Start subscribes to the node and broadcast activation subjects
func (c *Consumer) Start(ctx context.Context) error {
	if c.node == "" {
		return gerrors.ErrNodeNameRequired
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	handler := func(msg *nats.Msg) {
		work := new(activation.Work)
		if err := json.Unmarshal(msg.Data, work); err != nil {
			c.conn.logger.Warnf("dropping undecodable work on %s: %v", msg.Subject, err)
			return
		}

		c.conn.logger.Debugf("received %s on %s", work, msg.Subject)
		if err := c.consumer.Consume(ctx, work); err != nil {
			c.conn.logger.Errorf("failed to consume %s: %v", work, err)
		}
	}

	for _, subject := range []string{ActivationSubject(c.node), ActivationSubject("")} {
		subscription, err := c.conn.subscribe(subject, handler)
		if err != nil {
			return multierr.Append(err, c.unsubscribeAll())
		}
		c.subscriptions = append(c.subscriptions, subscription)
	}
	return nil
}

// Stop removes the consumer subscriptions
func (c *Consumer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unsubscribeAll()
}

func (c *Consumer) unsubscribeAll() error {
	var err error
	for _, subscription := range c.subscriptions {
		err = multierr.Append(err, c.conn.unsubscribe(subscription))
	}
	c.subscriptions = nil
	return err
}
