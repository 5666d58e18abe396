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

package agent

import (
	"context"
	"fmt"
	"os/exec"
)

// Rebooter reboots the node the agent runs on
type Rebooter interface {
	Reboot(ctx context.Context) error
}

// DefaultRebootCommand is the command run by a CommandRebooter created without arguments
var DefaultRebootCommand = []string{"systemctl", "reboot"}

// CommandRebooter reboots by running an external command
type CommandRebooter struct {
	command []string
}

var _ Rebooter = (*CommandRebooter)(nil)

// NewCommandRebooter creates a CommandRebooter running command.
// DefaultRebootCommand is used when command is empty.
func NewCommandRebooter(command ...string) *CommandRebooter {
	if len(command) == 0 {
		command = DefaultRebootCommand
	}
	return &CommandRebooter{command: command}
}

// Reboot runs the reboot command and waits for it
func (r *CommandRebooter) Reboot(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, r.command[0], r.command[1:]...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("reboot command %v failed: %w: %s", r.command, err, output)
	}
	return nil
}
