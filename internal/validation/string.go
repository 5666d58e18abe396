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

package validation

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
)

type emptyStringValidator struct {
	field string
	value string
}

// NewEmptyStringValidator creates a validator that fails when value is blank
func NewEmptyStringValidator(field, value string) Validator {
	return &emptyStringValidator{field: field, value: value}
}

// Validate returns an error when the value is blank
func (v emptyStringValidator) Validate() error {
	if strings.TrimSpace(v.value) == "" {
		return fmt.Errorf("the [%s] is required", v.field)
	}
	return nil
}

type regexValidator struct {
	field      string
	expression string
}

// NewRegexValidator creates a validator that fails when expression is not a
// valid regular expression
func NewRegexValidator(field, expression string) Validator {
	return &regexValidator{field: field, expression: expression}
}

// Validate returns an error when the expression does not compile
func (v regexValidator) Validate() error {
	if _, err := regexp.Compile(v.expression); err != nil {
		return fmt.Errorf("the [%s] is not a valid regular expression: %w", v.field, err)
	}
	return nil
}

type listenAddressValidator struct {
	field   string
	address string
}

// NewListenAddressValidator creates a validator for "host:port" listen
// addresses. The host may be empty to listen on every interface.
func NewListenAddressValidator(field, address string) Validator {
	return &listenAddressValidator{field: field, address: address}
}

// Validate returns an error when the address cannot be listened on
func (v listenAddressValidator) Validate() error {
	_, port, err := net.SplitHostPort(strings.TrimSpace(v.address))
	if err != nil {
		return fmt.Errorf("the [%s] is invalid: %w", v.field, err)
	}
	number, err := strconv.Atoi(port)
	if err != nil || number < 0 || number > 65535 {
		return fmt.Errorf("the [%s] has an invalid port %q", v.field, port)
	}
	return nil
}
