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
	"fmt"
	"sync"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/nats-io/nats.go"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	gerrors "github.com/tochemey/cmframework/errors"
	"github.com/tochemey/cmframework/log"
)

// Conn wraps a nats connection shared by the publishers and subscribers of a process
type Conn struct {
	config *Config
	mu     sync.Mutex

	connected *atomic.Bool

	// define the nats connection
	connection *nats.Conn
	// define a slice of subscriptions
	subscriptions []*nats.Subscription

	logger log.Logger
}

// Connect dials the nats server described by config
func Connect(config *Config, opts ...Option) (*Conn, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	config.sanitize()
	conn := &Conn{
		config:    config,
		connected: atomic.NewBool(false),
		logger:    log.DefaultLogger,
	}

	for _, opt := range opts {
		opt.Apply(conn)
	}

	natsOpts := nats.GetDefaultOptions()
	natsOpts.Url = config.URL
	natsOpts.Name = config.Name
	natsOpts.ReconnectWait = 2 * time.Second
	natsOpts.MaxReconnect = -1

	var connection *nats.Conn
	// the initial delay is 100ms and the maximum delay is the reconnect wait
	retrier := retry.NewRetrier(config.ConnectRetries, 100*time.Millisecond, natsOpts.ReconnectWait)
	err := retrier.Run(func() error {
		var err error
		connection, err = natsOpts.Connect()
		return err
	})
	if err != nil {
		return nil, gerrors.NewTransportError(fmt.Errorf("failed to connect to %s: %w", config.URL, err))
	}

	conn.logger.Infof("connected to nats server %s as %s", config.URL, config.Name)
	conn.connection = connection
	conn.connected.Store(true)
	return conn, nil
}

// Connected reports whether the connection is usable
func (c *Conn) Connected() bool {
	return c.connected.Load() && c.connection.IsConnected()
}

// Close unsubscribes every subscription, flushes pending messages and closes the connection
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected.Swap(false) {
		return nil
	}

	var err error
	for _, subscription := range c.subscriptions {
		if subscription != nil && subscription.IsValid() {
			err = multierr.Append(err, subscription.Unsubscribe())
		}
	}
	c.subscriptions = nil

	err = multierr.Append(err, c.connection.Flush())
	c.connection.Close()
	return err
}

func (c *Conn) publish(subject string, data []byte) error {
	if !c.connected.Load() {
		return gerrors.NewTransportError(gerrors.ErrNotConnected)
	}
	if err := c.connection.Publish(subject, data); err != nil {
		return gerrors.NewTransportError(fmt.Errorf("failed to publish on %s: %w", subject, err))
	}
	return nil
}

func (c *Conn) subscribe(subject string, handler nats.MsgHandler) (*nats.Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected.Load() {
		return nil, gerrors.NewTransportError(gerrors.ErrNotConnected)
	}

	subscription, err := c.connection.Subscribe(subject, handler)
	if err != nil {
		return nil, gerrors.NewTransportError(fmt.Errorf("failed to subscribe to %s: %w", subject, err))
	}

	c.subscriptions = append(c.subscriptions, subscription)
	return subscription, nil
}

func (c *Conn) unsubscribe(subscription *nats.Subscription) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, sub := range c.subscriptions {
		if sub == subscription {
			c.subscriptions = append(c.subscriptions[:i], c.subscriptions[i+1:]...)
			break
		}
	}

	if subscription == nil || !subscription.IsValid() {
		return nil
	}
	return subscription.Unsubscribe()
}

func (c *Conn) request(ctx context.Context, subject string, data []byte) ([]byte, error) {
	if !c.connected.Load() {
		return nil, gerrors.NewTransportError(gerrors.ErrNotConnected)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.RequestTimeout)
		defer cancel()
	}

	msg, err := c.connection.RequestWithContext(ctx, subject, data)
	if err != nil {
		return nil, gerrors.NewTransportError(fmt.Errorf("request on %s failed: %w", subject, err))
	}
	return msg.Data, nil
}
