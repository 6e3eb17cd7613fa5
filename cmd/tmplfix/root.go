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

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/tmplfix/pkg/config"
	"github.com/walteh/tmplfix/pkg/log"
	"github.com/walteh/tmplfix/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

// rootFlags holds the values bound to command line flags
type rootFlags struct {
	configFile string
	debug      bool
	extension  string
	maxLines   int
	ignore     []string
	dryRun     bool
	diff       bool
}

// NewCommand creates the tmplfix root command
func NewCommand() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "tmplfix [root]",
		Short: "Add line breaks to single line template files",
		Long: `tmplfix walks a directory (templates by default) for template files
(.hbs by default) and rewrites the ones that are squashed onto a few lines.
It will:
1. Skip files that already have more than --max-lines lines
2. Break lines around imports, exports, test blocks, semicolons and braces
3. Collapse runs of blank lines
4. Rewrite each file in place and print "Fixed: <path>"`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(cmd, flags.debug)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, flags, args)
		},
	}

	addRootFlags(cmd, flags)
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// addRootFlags adds the flags to the root command
func addRootFlags(cmd *cobra.Command, flags *rootFlags) {
	cmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", config.DefaultConfigFile, "config file path (yaml, json or hcl)")
	cmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "enable debug logging")

	cmd.Flags().StringVar(&flags.extension, "ext", config.DefaultExtension, "template file extension")
	cmd.Flags().IntVar(&flags.maxLines, "max-lines", 0, "skip files with more lines than this (default 10)")
	cmd.Flags().StringArrayVar(&flags.ignore, "ignore", nil, "glob of root relative paths to skip (can be repeated)")
	cmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "n", false, "report files that would be fixed without writing them")
	cmd.Flags().BoolVar(&flags.diff, "diff", false, "print the changes made to each file")
}

// setupLogging lowers the context logger level when debugging
func setupLogging(cmd *cobra.Command, debug bool) {
	if !debug {
		return
	}
	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx).Level(zerolog.DebugLevel)
	cmd.SetContext(logger.WithContext(ctx))
}

func runRoot(cmd *cobra.Command, flags *rootFlags, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(ctx, cmd, flags, args)
	if err != nil {
		return err
	}
	zerolog.Ctx(ctx).Debug().Stringer("config", cfg).Str("location", cfg.Location()).Msg("configuration ready")

	ctx = log.NewContext(ctx, log.New(cmd.OutOrStdout(), *zerolog.Ctx(ctx)))

	r, err := operation.New(ctx, operation.Options{
		Config: cfg,
	})
	if err != nil {
		return errors.Errorf("creating reformatter: %w", err)
	}

	if _, err := r.Run(ctx, cfg.Root); err != nil {
		return errors.Errorf("reformatting: %w", err)
	}

	return nil
}

// loadConfig layers flags and the optional root argument over the config file
func loadConfig(ctx context.Context, cmd *cobra.Command, flags *rootFlags, args []string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if cmd.Flags().Changed("config") {
		cfg, err = config.Load(ctx, flags.configFile)
	} else {
		cfg, err = config.LoadOrDefault(ctx, flags.configFile)
	}
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}

	if len(args) == 1 {
		cfg.Root = args[0]
	}
	if cmd.Flags().Changed("ext") {
		cfg.Extension = flags.extension
	}
	if cmd.Flags().Changed("max-lines") {
		cfg.MaxLines = flags.maxLines
	}
	if cmd.Flags().Changed("ignore") {
		cfg.Ignore = append(cfg.Ignore, flags.ignore...)
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun = flags.dryRun
	}
	if cmd.Flags().Changed("diff") {
		cfg.Diff = flags.diff
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}
