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
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	gerrors "github.com/tochemey/cmframework/errors"
)

// RebootRequester records that a node must be rebooted
type RebootRequester interface {
	RebootRequest(ctx context.Context, node string) error
}

type rebootRequest struct {
	Node string `json:"node"`
}

type rebootResponse struct {
	Error string `json:"error,omitempty"`
}

// RebootRequestResponder serves node reboot requests on the controller
type RebootRequestResponder struct {
	conn      *Conn
	requester RebootRequester

	mu           sync.Mutex
	subscription *nats.Subscription
}

// NewRebootRequestResponder creates a RebootRequestResponder
func NewRebootRequestResponder(conn *Conn, requester RebootRequester) *RebootRequestResponder {
	return &RebootRequestResponder{
		conn:      conn,
		requester: requester,
	}
}

// Start subscribes to NodeRebootSubject
func (r *RebootRequestResponder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	subscription, err := r.conn.subscribe(NodeRebootSubject, func(msg *nats.Msg) {
		r.respond(ctx, msg)
	})
	if err != nil {
		return err
	}
	r.subscription = subscription
	return nil
}

// Stop unsubscribes from NodeRebootSubject
func (r *RebootRequestResponder) Stop(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.conn.unsubscribe(r.subscription)
	r.subscription = nil
	return err
}

func (r *RebootRequestResponder) respond(ctx context.Context, msg *nats.Msg) {
	var (
		request  rebootRequest
		response rebootResponse
	)

	if err := json.Unmarshal(msg.Data, &request); err != nil {
		response.Error = fmt.Sprintf("invalid reboot request: %v", err)
	} else {
		r.conn.logger.Infof("reboot requested for %q", request.Node)
		if err := r.requester.RebootRequest(ctx, request.Node); err != nil {
			response.Error = err.Error()
		}
	}

	data, _ := json.Marshal(response)
	if err := msg.Respond(data); err != nil {
		r.conn.logger.Errorf("failed to reply to reboot request of %q: %v", request.Node, err)
	}
}

// RebootRequestClient forwards reboot requests of node plugins to the controller
type RebootRequestClient struct {
	conn *Conn
}

var _ RebootRequester = (*RebootRequestClient)(nil)

// NewRebootRequestClient creates a RebootRequestClient
func NewRebootRequestClient(conn *Conn) *RebootRequestClient {
	return &RebootRequestClient{conn: conn}
}

// RebootRequest sends a reboot request for node and waits for the controller to record it
func (c *RebootRequestClient) RebootRequest(ctx context.Context, node string) error {
	if node == "" {
		return gerrors.ErrNodeNameRequired
	}

	data, err := json.Marshal(rebootRequest{Node: node})
	if err != nil {
		return err
	}

	reply, err := c.conn.request(ctx, NodeRebootSubject, data)
	if err != nil {
		return err
	}

	var response rebootResponse
	if err := json.Unmarshal(reply, &response); err != nil {
		return gerrors.NewTransportError(fmt.Errorf("invalid reboot response: %w", err))
	}
	if response.Error != "" {
		return errors.New(response.Error)
	}
	return nil
}
