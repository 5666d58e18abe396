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
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"go.uber.org/multierr"

	gerrors "github.com/tochemey/cmframework/errors"
)

// NodeActivator activates a single node and reports whether it must reboot
type NodeActivator interface {
	ActivateNode(ctx context.Context, node string) (bool, error)
}

type nodeActivationRequest struct {
	Node string `json:"node"`
}

type nodeActivationResponse struct {
	Reboot bool   `json:"reboot"`
	Error  string `json:"error,omitempty"`
}

// NodeActivationResponder serves node activation requests on the controller.
// Requests are handled concurrently so several nodes can activate at once.
type NodeActivationResponder struct {
	conn      *Conn
	activator NodeActivator

	mu           sync.Mutex
	stopped      bool
	subscription *nats.Subscription
	inflight     sync.WaitGroup
}

// NewNodeActivationResponder creates a NodeActivationResponder
func NewNodeActivationResponder(conn *Conn, activator NodeActivator) *NodeActivationResponder {
	return &NodeActivationResponder{
		conn:      conn,
		activator: activator,
	}
}

// Start subscribes to NodeActivationSubject
func (r *NodeActivationResponder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	subscription, err := r.conn.subscribe(NodeActivationSubject, func(msg *nats.Msg) {
		r.mu.Lock()
		if r.stopped {
			r.mu.Unlock()
			return
		}
		r.inflight.Add(1)
		r.mu.Unlock()

		go func() {
			defer r.inflight.Done()
			r.respond(ctx, msg)
		}()
	})
	if err != nil {
		return err
	}

	r.subscription = subscription
	r.stopped = false
	return nil
}

// Stop unsubscribes and waits for in-flight requests to complete
func (r *NodeActivationResponder) Stop(ctx context.Context) error {
	r.mu.Lock()
	r.stopped = true
	err := r.conn.unsubscribe(r.subscription)
	r.subscription = nil
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return err
	case <-ctx.Done():
		return multierr.Append(err, ctx.Err())
	}
}

func (r *NodeActivationResponder) respond(ctx context.Context, msg *nats.Msg) {
	var (
		request  nodeActivationRequest
		response nodeActivationResponse
	)

	if err := json.Unmarshal(msg.Data, &request); err != nil {
		response.Error = fmt.Sprintf("invalid node activation request: %v", err)
	} else if request.Node == "" {
		response.Error = gerrors.ErrNodeNameRequired.Error()
	} else {
		r.conn.logger.Infof("node activation requested by %s", request.Node)
		reboot, err := r.activator.ActivateNode(ctx, request.Node)
		if err != nil {
			response.Error = err.Error()
		}
		response.Reboot = reboot
	}

	data, _ := json.Marshal(response)
	if err := msg.Respond(data); err != nil {
		r.conn.logger.Errorf("failed to reply to node activation request of %q: %v", request.Node, err)
	}
}

// NodeActivationClient asks the controller to activate a node
type NodeActivationClient struct {
	conn *Conn
}

var _ NodeActivator = (*NodeActivationClient)(nil)

// NewNodeActivationClient creates a NodeActivationClient
func NewNodeActivationClient(conn *Conn) *NodeActivationClient {
	return &NodeActivationClient{conn: conn}
}

// ActivateNode sends a node activation request and waits for the reply
func (c *NodeActivationClient) ActivateNode(ctx context.Context, node string) (bool, error) {
	if node == "" {
		return false, gerrors.ErrNodeNameRequired
	}

	data, err := json.Marshal(nodeActivationRequest{Node: node})
	if err != nil {
		return false, err
	}

	reply, err := c.conn.request(ctx, NodeActivationSubject, data)
	if err != nil {
		return false, err
	}

	var response nodeActivationResponse
	if err := json.Unmarshal(reply, &response); err != nil {
		return false, gerrors.NewTransportError(fmt.Errorf("invalid node activation response: %w", err))
	}

	if response.Error != "" {
		return response.Reboot, fmt.Errorf("activation of node %s failed: %s", node, response.Error)
	}
	return response.Reboot, nil
}
