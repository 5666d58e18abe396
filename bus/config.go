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
	"time"

	"github.com/tochemey/cmframework/internal/validation"
)

const (
	// DefaultConnectRetries is the number of connection attempts made by Connect
	DefaultConnectRetries = 5
	// DefaultRequestTimeout bounds request/reply calls that carry no deadline
	DefaultRequestTimeout = 10 * time.Minute
)

// Config represents the bus connection config
type Config struct {
	// URL defines the nats server in the format nats://host:port
	URL string
	// Name is the connection name reported to the server
	Name string
	// ConnectRetries is the maximum number of connection attempts
	ConnectRetries int
	// RequestTimeout bounds a request when the caller context has no deadline
	RequestTimeout time.Duration
}

// Validate checks whether the given bus configuration is valid
func (x Config) Validate() error {
	return validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("URL", x.URL)).
		AddValidator(validation.NewEmptyStringValidator("Name", x.Name)).
		AddAssertion(x.ConnectRetries >= 0, "ConnectRetries must not be negative").
		Validate()
}

func (x *Config) sanitize() {
	if x.ConnectRetries <= 0 {
		x.ConnectRetries = DefaultConnectRetries
	}
	if x.RequestTimeout <= 0 {
		x.RequestTimeout = DefaultRequestTimeout
	}
}
