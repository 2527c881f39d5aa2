// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/webbind/cmd/webbind/commands"
	"github.com/walteh/webbind/cmd/webbind/opts"
	"github.com/walteh/webbind/pkg/config"
	"github.com/walteh/webbind/pkg/log"
	"gitlab.com/tozd/go/errors"
)

var (
	// Flags
	configFile string
	debugLogs  bool
)

func newRootCmd() *cobra.Command {
	o := &opts.RootOpts{}

	rootCmd := &cobra.Command{
		Use:   "webbind",
		Short: "Bind exported web pages to LLWeb data points",
		Long: `webbind takes a zipped static website and one or more csv data point lists
and produces a package for the LLWeb runtime: assets move from public/ to img/,
the runtime scripts are injected and every element marked with nv="<address>"
is bound to its data point.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd.ErrOrStderr())
			ctx := zerolog.DefaultContextLogger.WithContext(cmd.Context())
			cmd.SetContext(ctx)
			return initRootOpts(ctx, o, cmd.OutOrStdout())
		},
	}

	addRootFlags(rootCmd)

	rootCmd.AddCommand(
		commands.NewProcessCmd(o),
		commands.NewRecordsCmd(o),
		newVersionCmd(),
	)

	return rootCmd
}

// initRootOpts loads the configuration and creates the console logger
func initRootOpts(ctx context.Context, o *opts.RootOpts, console io.Writer) error {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(ctx, configFile)
		if err != nil {
			return errors.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	o.Config = cfg
	o.Logger = log.New(console, *zerolog.Ctx(ctx))
	return nil
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (yaml, hcl or json)")
	cmd.PersistentFlags().BoolVarP(&debugLogs, "debug", "d", false, "enable debug logging")
}

// setupLogging configures zerolog based on flags
func setupLogging(w io.Writer) {
	if debugLogs {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
}
