package cli

import (
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vk/conceptc/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// flags are the raw command-line values. They override the config file
// only when given explicitly.
type flags struct {
	configFile      string
	manifests       []string
	logFormat       string
	logLevel        string
	maxIterations   int
	maxErrorLines   int
	variant         string
	excessDotInKey  string
	cachePath       string
	outputFormat    string
	outputPath      string
	publishURL      string
	publishNS       string
	publishAck      string
	publishTimeout  string
	publishInsecure bool
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	var (
		f      flags
		config *app.Config
	)

	cmd := &cobra.Command{
		Use:   "conceptc [flags] SOURCE...",
		Short: "Compile business-model scripts into an ordered concept graph.",
		Long: `conceptc - compiles declarative business-model scripts into a fully
resolved, dependency-ordered list of typed concepts.

Arguments:
  SOURCE
    A .rhe script or a directory containing .rhe scripts.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, sources []string) error {
			base := app.Config{}
			if f.configFile != "" {
				loaded, err := app.LoadConfigFile(f.configFile)
				if err != nil {
					return &ExitError{Code: 2, Message: err.Error()}
				}
				base = loaded
			}
			f.apply(cmd, &base)
			if len(sources) > 0 {
				base.Sources = sources
			}

			if len(base.Sources) == 0 {
				slog.Debug("No sources provided, printing usage and exiting.")
				return cmd.Usage()
			}

			c, err := app.NewConfig(base)
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}
			config = c
			return nil
		},
	}
	cmd.SetArgs(args)
	cmd.SetOut(output)
	cmd.SetErr(output)

	fs := cmd.Flags()
	fs.StringVarP(&f.configFile, "config", "c", "", "TOML file with default settings.")
	fs.StringSliceVarP(&f.manifests, "manifests", "m", nil, "HCL manifest files or directories declaring concept types and macros.")
	fs.StringVar(&f.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	fs.StringVar(&f.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	fs.IntVar(&f.maxIterations, "max-iterations", 200, "Macro expansion iteration ceiling.")
	fs.IntVar(&f.maxErrorLines, "max-error-lines", 10, "Partial parse failures listed per syntax error.")
	fs.StringVar(&f.variant, "variant", "", "Variant of external include files, e.g. 'PostgreSql'.")
	fs.StringVar(&f.excessDotInKey, "excess-dot-in-key", "error", "Handling of a '.' where no key separator belongs. Options: 'error', 'warn', 'ignore'.")
	fs.StringVar(&f.cachePath, "cache", "", "SQLite file caching compiled builds. Empty disables the cache.")
	fs.StringVarP(&f.outputFormat, "format", "f", "text", "Output format. Options: 'text', 'json', 'yaml'.")
	fs.StringVarP(&f.outputPath, "output", "o", "", "Write the concept list to this file instead of stdout.")
	fs.StringVar(&f.publishURL, "publish-url", "", "socket.io URL of a generator service to send the concept list to.")
	fs.StringVar(&f.publishNS, "publish-namespace", "", "socket.io namespace of the generator service.")
	fs.StringVar(&f.publishAck, "publish-ack-event", "", "Event the generator service answers with once it has the list.")
	fs.StringVar(&f.publishTimeout, "publish-timeout", "", "Publish timeout, e.g. '15s'.")
	fs.BoolVar(&f.publishInsecure, "publish-insecure", false, "Skip TLS certificate verification when publishing.")

	if err := cmd.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return nil, false, exitErr
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if config == nil {
		return nil, true, nil
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// apply copies every explicitly given flag into cfg.
func (f *flags) apply(cmd *cobra.Command, cfg *app.Config) {
	changed := cmd.Flags().Changed
	if changed("manifests") {
		cfg.Manifests = f.manifests
	}
	if changed("log-format") {
		cfg.LogFormat = f.logFormat
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("max-iterations") {
		cfg.MaxIterations = f.maxIterations
	}
	if changed("max-error-lines") {
		cfg.MaxErrorLines = f.maxErrorLines
	}
	if changed("variant") {
		cfg.Variant = f.variant
	}
	if changed("excess-dot-in-key") {
		cfg.ExcessDotInKey = f.excessDotInKey
	}
	if changed("cache") {
		cfg.CachePath = f.cachePath
	}
	if changed("format") {
		cfg.OutputFormat = f.outputFormat
	}
	if changed("output") {
		cfg.OutputPath = f.outputPath
	}
	if changed("publish-url") {
		cfg.Publish.URL = f.publishURL
	}
	if changed("publish-namespace") {
		cfg.Publish.Namespace = f.publishNS
	}
	if changed("publish-ack-event") {
		cfg.Publish.AckEvent = f.publishAck
	}
	if changed("publish-timeout") {
		cfg.Publish.Timeout = f.publishTimeout
	}
	if changed("publish-insecure") {
		cfg.Publish.InsecureSkipVerify = f.publishInsecure
	}
}
