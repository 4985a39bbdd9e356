// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cli implements the storyclips command line tool: an offline
// front door to the same transcription, narrative analysis, and clip
// synthesis the server pipeline runs. The CLI never talks to Google
// Cloud; moment selection always uses the heuristic scorer and clips
// stay on local disk.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-story-clips/internal/cloud"
)

// Main builds the command tree and runs it.
func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "storyclips",
		Short:        "Analyze testimonial videos and cut story clips locally",
		SilenceUsage: true,
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.PersistentFlags().String("config", "configs", "Configuration directory")
	root.PersistentFlags().String("env", "local", "Runtime environment suffix for config overrides")
	root.PersistentFlags().String("workdir", "", "Override the local work directory")

	analyze := &cobra.Command{
		Use:   "analyze <input>",
		Short: "Transcribe a video and print its narrative structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0])
		},
	}

	synthesize := &cobra.Command{
		Use:   "synthesize <input>",
		Short: "Cut clip variants and text assets from a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSynthesize(cmd, args[0])
		},
	}

	root.AddCommand(analyze, synthesize)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig points the loader at the flag-selected config directory and
// environment, then applies CLI overrides.
func loadConfig(cmd *cobra.Command) (*cloud.Config, error) {
	configDir, _ := cmd.Flags().GetString("config")
	env, _ := cmd.Flags().GetString("env")

	if err := os.Setenv(cloud.EnvConfigFilePrefix, configDir); err != nil {
		return nil, err
	}
	if err := os.Setenv(cloud.EnvConfigRuntime, env); err != nil {
		return nil, err
	}

	config := cloud.NewConfig()
	cloud.LoadConfig(&config)

	if workDir, _ := cmd.Flags().GetString("workdir"); workDir != "" {
		config.Storage.LocalWorkDir = workDir
	}
	return config, nil
}
