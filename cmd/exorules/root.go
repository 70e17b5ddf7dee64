package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/exorules/config"
	"github.com/c360studio/exorules/emit"
)

func rootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Habitability rule compiler",
		Long: `Exorules reads a directory of rule-definition files, extracts the
catalog literal from each, validates and normalizes every rule, and emits
one source file that registers the whole catalog through a builder API.

Supported targets: ` + targetList(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	flags.StringVar(&opts.dir, "dir", "", "Catalog directory")
	flags.StringVarP(&opts.out, "out", "o", "", "Output file (default: stdout)")
	flags.StringVarP(&opts.target, "target", "t", "", "Output target ("+targetList()+")")
	flags.StringVar(&opts.manifest, "manifest", "", "Build manifest path")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Prometheus textfile path")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		compileCmd(opts),
		checkCmd(opts),
		watchCmd(opts),
		initCmd(opts),
		versionCmd(),
	)
	return cmd
}

func appCommand(opts *options, use, short string, run func(*App, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return run(app, ctx)
		},
	}
}

func compileCmd(opts *options) *cobra.Command {
	return appCommand(opts, "compile", "Compile the catalog into source", (*App).Compile)
}

func checkCmd(opts *options) *cobra.Command {
	return appCommand(opts, "check", "Validate the catalog without emitting", (*App).Check)
}

func watchCmd(opts *options) *cobra.Command {
	return appCommand(opts, "watch", "Recompile whenever a catalog file changes", (*App).Watch)
}

func initCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default " + config.ProjectConfigFile,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			logger := newLogger(cmd.ErrOrStderr(), opts.logLevel)
			path, created, err := config.NewLoader(logger).WriteProjectConfig(dir)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already exists\n", path)
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}

func targetList() string {
	return strings.Join(emit.Targets(), ", ")
}
