package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/config"

	// Register the connector
	_ "github.com/ajitpratap0/nebula-source-elasticsearch/pkg/connector/sources/elasticsearch"
)

var version = "0.2.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// newRootCmd builds the command tree writing protocol output to stdout.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	a := &app{stdout: stdout, stderr: stderr, viper: v}

	root := &cobra.Command{
		Use:   "source-elasticsearch",
		Short: "Elasticsearch and OpenSearch source connector",
		Long: `source-elasticsearch reads every document of selected Elasticsearch 7.x or
OpenSearch indices and writes them as line-delimited protocol messages on stdout.

Example:
  source-elasticsearch check --config config.json
  source-elasticsearch discover --config config.json
  source-elasticsearch read --config config.json --catalog configured_catalog.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	defaults := config.DefaultSettings()
	flags := root.PersistentFlags()
	flags.String("source", defaults.Source, "Registered connector name")
	flags.String("log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")
	flags.String("log-encoding", defaults.LogEncoding, "Log encoding: protocol (LOG messages on stdout), json or console (stderr)")
	flags.String("metrics-file", defaults.MetricsFile, "Write Prometheus metrics in textfile format to this path on exit")
	flags.Bool("trace", defaults.Trace, "Export OpenTelemetry spans to stderr")
	flags.Duration("request-timeout", defaults.RequestTimeout, "Timeout for check and discover")

	for key, flag := range map[string]string{
		"source":          "source",
		"log_level":       "log-level",
		"log_encoding":    "log-encoding",
		"metrics_file":    "metrics-file",
		"trace":           "trace",
		"request_timeout": "request-timeout",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		a.specCmd(),
		a.checkCmd(),
		a.discoverCmd(),
		a.readCmd(),
		listCmd(),
		versionCmd(),
	)
	return root
}
