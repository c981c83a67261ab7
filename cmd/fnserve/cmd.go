package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	fn "github.com/dsyer/spring-cloud-function"
	"github.com/dsyer/spring-cloud-function/catalog"
)

var rootCmd = &cobra.Command{
	Use:   "fnserve",
	Short: "Serve a catalog of sample functions over HTTP",
	Long:  "Serve the sample functions, consumers and suppliers of fnserve over HTTP",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Example: `  fnserve serve --port 8080
  fnserve serve --config config.yaml
  fnserve serve --export-url 'http://localhost:9000/{{destination}}'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		debug, _ := cmd.Flags().GetBool("debug")
		exportURL, _ := cmd.Flags().GetString("export-url")
		natsURL, _ := cmd.Flags().GetString("nats-url")
		config, _ := cmd.Flags().GetString("config")

		env := map[string]string{}
		switch {
		case config != "":
			env["FN_CONFIG_PATH"] = config
		case os.Getenv("FN_CONFIG_PATH") == "" && os.Getenv("FN_CONFIG") == "":
			// the sample config is optional
			env["FN_CONFIG_LOADER_TYPE"] = "env"
			env["FN_CONFIG"] = "{}"
		}
		if port > 0 {
			env["FN_PORT"] = strconv.Itoa(port)
		}
		if debug {
			env["FN_DEBUG"] = "true"
		}
		if exportURL != "" || natsURL != "" {
			env["FN_EXPORT_ENABLED"] = "true"
			env["FN_EXPORT_SINK_URL"] = exportURL
			env["FN_EXPORT_NATS_URL"] = natsURL
		}
		for k, v := range env {
			if err := os.Setenv(k, v); err != nil {
				return fmt.Errorf("failed to set %s: %w", k, err)
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fn.Run(ctx, newSampleCatalog)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the served targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := newSampleCatalog(cmd.Context(), nil, sampleCfg{})
		for _, k := range []catalog.Kind{catalog.KindFunction, catalog.KindConsumer, catalog.KindSupplier} {
			for _, name := range cat.Names(k) {
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", k, name)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, listCmd)

	serveCmd.Flags().IntP("port", "p", 0, "HTTP port, defaults to $PORT or 8081")
	serveCmd.Flags().StringP("config", "c", "", "Path to a JSON or YAML config file")
	serveCmd.Flags().Bool("debug", false, "Log every item flowing through the targets")
	serveCmd.Flags().String("export-url", "", "Export supplier output to this URL, may contain {{destination}}")
	serveCmd.Flags().String("nats-url", "", "Export supplier output to this NATS server")
}
