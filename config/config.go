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

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tochemey/cmframework/backend"
	"github.com/tochemey/cmframework/flagfile"
	"github.com/tochemey/cmframework/internal/validation"
	"github.com/tochemey/cmframework/log"
)

// Property store types
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// State store types
const (
	StateMemory = "memory"
	StateBolt   = "bolt"
)

// Config represents the configuration of the controller and of the node agents
type Config struct {
	// Node is the name of the node the process runs on
	Node string `yaml:"node"`
	// Workers is the number of node activation workers
	Workers int `yaml:"workers"`
	// Plugins lists the plugin manifest directories
	Plugins Plugins `yaml:"plugins"`
	// Backend selects the property store
	Backend Backend `yaml:"backend"`
	// State selects the store holding snapshots and activation state
	State State `yaml:"state"`
	// FlagDir holds the automatic activation flag file
	FlagDir string `yaml:"flag_dir"`
	// NATS configures the activation bus. Remote activation is disabled without a URL.
	NATS NATS `yaml:"nats"`
	// Metrics configures the prometheus endpoint. It is disabled without an address.
	Metrics Metrics `yaml:"metrics"`
	// RebootCommand is run by the agent when its node must reboot
	RebootCommand []string `yaml:"reboot_command"`
	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level"`
}

// Plugins lists the plugin manifest directories
type Plugins struct {
	Validators      string `yaml:"validators"`
	Activators      string `yaml:"activators"`
	LocalActivators string `yaml:"local_activators"`
	UpdateDeps      string `yaml:"update_deps"`
}

// Backend selects the property store
type Backend struct {
	Type      string              `yaml:"type"`
	File      string              `yaml:"file"`
	Redis     backend.RedisConfig `yaml:"redis"`
	KeyPrefix string              `yaml:"key_prefix"`
}

// State selects the state store
type State struct {
	Type string `yaml:"type"`
	Path string `yaml:"path"`
}

// NATS configures the activation bus
type NATS struct {
	URL            string `yaml:"url"`
	ConnectRetries int    `yaml:"connect_retries"`
}

// Metrics configures the metrics endpoint
type Metrics struct {
	Address string `yaml:"address"`
}

// Default returns the default configuration. The node name defaults to the host name.
func Default() *Config {
	node, _ := os.Hostname()
	return &Config{
		Node:     node,
		Workers:  1,
		Backend:  Backend{Type: BackendMemory},
		State:    State{Type: StateMemory},
		FlagDir:  flagfile.DefaultDir,
		LogLevel: log.InfoLevel.String(),
	}
}

// Load reads the YAML file at path over the default configuration and validates it
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	config := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate reports every invalid setting
func (x *Config) Validate() error {
	chain := validation.New(validation.AllErrors()).
		AddValidator(validation.NewEmptyStringValidator("node", x.Node)).
		AddAssertion(x.Workers > 0, "workers must be greater than zero").
		AddAssertion(x.Level() != log.InvalidLevel, fmt.Sprintf("invalid log_level %q", x.LogLevel))

	switch x.Backend.Type {
	case BackendMemory:
	case BackendFile:
		chain.AddValidator(validation.NewEmptyStringValidator("backend.file", x.Backend.File))
	case BackendRedis:
		chain.AddValidator(validation.NewEmptyStringValidator("backend.redis.address", x.Backend.Redis.Address))
	default:
		chain.AddAssertion(false, fmt.Sprintf("unknown backend type %q", x.Backend.Type))
	}

	switch x.State.Type {
	case StateMemory:
	case StateBolt:
		chain.AddValidator(validation.NewEmptyStringValidator("state.path", x.State.Path))
	default:
		chain.AddAssertion(false, fmt.Sprintf("unknown state type %q", x.State.Type))
	}

	if x.Metrics.Address != "" {
		chain.AddValidator(validation.NewListenAddressValidator("metrics.address", x.Metrics.Address))
	}
	chain.AddAssertion(x.NATS.ConnectRetries >= 0, "nats.connect_retries must not be negative")
	return chain.Validate()
}

// Level returns the parsed log level
func (x *Config) Level() log.Level {
	return log.ParseLevel(x.LogLevel)
}
