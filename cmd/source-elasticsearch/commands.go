package main

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/connector/registry"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/protocol"
)

func (a *app) specCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spec",
		Short: "Print the connection specification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), "spec", func(ctx context.Context) error {
				return a.runner.Spec(ctx)
			})
		},
	}
}

func (a *app) checkCmd() *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Test the connection to the engine",
		Long: `Ping the engine with the given configuration. The result is always written as a
CONNECTION_STATUS message; a failed connection does not fail the command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), "check", func(ctx context.Context) error {
				cfg, err := loadConfig(configFile)
				if err != nil {
					a.log.Warn("configuration could not be loaded", zap.Error(err))
					return a.writer.Write(protocol.NewConnectionStatusMessage(
						protocol.Failed("Connection failed: " + err.Error())))
				}
				_, err = a.runner.Check(ctx, cfg)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to the connection configuration file (required)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func (a *app) discoverCmd() *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List indices and their schemas as a catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), "discover", func(ctx context.Context) error {
				cfg, err := loadConfig(configFile)
				if err != nil {
					return err
				}
				_, err = a.runner.Discover(ctx, cfg)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to the connection configuration file (required)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func (a *app) readCmd() *cobra.Command {
	var configFile, catalogFile, stateFile string
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read every document of the configured streams",
		Long: `Scroll through every index named in the configured catalog, in catalog order,
and write each document as a RECORD message. State is accepted and ignored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), "read", func(ctx context.Context) error {
				cfg, err := loadConfig(configFile)
				if err != nil {
					return err
				}
				catalog, err := protocol.ReadConfiguredCatalog(catalogFile)
				if err != nil {
					return err
				}
				state, err := protocol.ReadState(stateFile)
				if err != nil {
					return err
				}

				stats, err := a.runner.Read(ctx, cfg, catalog, state)
				if err != nil {
					return err
				}
				a.log.Info("records emitted",
					zap.Int64("records", stats.Records),
					zap.Any("streams", stats.PerStream))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to the connection configuration file (required)")
	cmd.Flags().StringVar(&catalogFile, "catalog", "", "Path to the configured catalog file (required)")
	cmd.Flags().StringVar(&stateFile, "state", "", "Path to a state file (optional, ignored)")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("catalog")
	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available connectors",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Available Source Connectors:")
			for _, info := range registry.ListConnectorInfo() {
				fmt.Fprintf(out, "  - %s (v%s)", info.Name, info.Version)
				if len(info.Aliases) > 0 {
					fmt.Fprintf(out, " aliases: %s", strings.Join(info.Aliases, ", "))
				}
				fmt.Fprintln(out)
				if info.Description != "" {
					fmt.Fprintf(out, "      %s\n", info.Description)
				}
			}
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "source-elasticsearch v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
