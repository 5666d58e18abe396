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

const (
	// AllNodes is the activation subject token addressing every node
	AllNodes = "all"
	// ActivationSubjectPrefix prefixes every activation subject
	ActivationSubjectPrefix = "cmframework.activator"
	// AlarmSubject carries alarm events
	AlarmSubject = "cmframework.alarms"
	// NodeActivationSubject carries node activation requests
	NodeActivationSubject = "cmframework.node.activate"
	// NodeRebootSubject carries node reboot requests
	NodeRebootSubject = "cmframework.node.reboot"
)

// ActivationSubject returns the subject works for target are published on.
// An empty target addresses every node.
func ActivationSubject(target string) string {
	if target == "" {
		target = AllNodes
	}
	return ActivationSubjectPrefix + "." + target
}
