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

// Package main provides the cmframework command line.
//
// Start the controller:
//
//	cmframework serve --config /etc/cmframework/config.yaml
//
// Start the agent of a node:
//
//	cmframework agent --config /etc/cmframework/agent.yaml
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tochemey/cmframework/plugin"
)

var (
	version = "dev"
	commit  = "none"
)

// registry holds the plugin factories manifests refer to. Programs embedding
// plugins register them here before the command runs.
var registry = plugin.NewRegistry()

func main() {
	if err := buildRootCmd(registry).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCmd(registry *plugin.Registry) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "cmframework",
		Short:        "Cluster configuration management",
		Version:      fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildServeCmd(registry),
		buildAgentCmd(registry),
	)
	return rootCmd
}

func buildServeCmd(registry *plugin.Registry) *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the configuration management controller",
		Long: `Start the controller: property store, validation and activation plugins,
the activator, the remote activation bus and the metrics endpoint.

A startup activation re-drives the plugins that failed the last full activation.
Graceful shutdown is handled on SIGINT/SIGTERM signals.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath, registry)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	return cmd
}

func buildAgentCmd(registry *plugin.Registry) *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Start the agent of a node",
		Long: `Start the node agent: it asks the controller to bring the node up to date,
reboots the node when requested and then runs the node scoped activation
plugins for every change published by the controller.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAgent(cmd.Context(), configPath, registry)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	return cmd
}
