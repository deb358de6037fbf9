package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"label-store/internal/config"
	"label-store/internal/logger"
)

var (
	// Build information (injected by GoReleaser)
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// options holds the persistent flags and the configuration they resolve to
type options struct {
	envFile     string
	backend     string
	dbPath      string
	databaseURL string
	logLevel    string

	cfg *config.Config
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "label-store",
		Short: "Store validated alphanumeric labels",
		Long: "A tool for creating and reading records whose columns hold validated labels. " +
			"Run without a subcommand to create a single record with the label \"test\".",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd, opts)
		},
	}

	// Global flags override the environment
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", ".env", "optional env file loaded before the environment is read")
	flags.StringVar(&opts.backend, "backend", "", "storage backend (sqlite, postgres)")
	flags.StringVarP(&opts.dbPath, "db", "d", "", "path to SQLite database file")
	flags.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection string")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newCreateCmd(opts),
		newGetCmd(opts),
		newListCmd(opts),
		newValidateCmd(),
		newImportCmd(opts),
		newExportCmd(opts),
		newMigrateCmd(opts),
		newVersionCmd(),
	)

	return rootCmd
}

// load resolves the configuration and puts the logger into the command context
func (o *options) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.envFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = config.Backend(o.backend)
	}
	if flags.Changed("db") {
		cfg.SQLitePath = o.dbPath
	}
	if flags.Changed("database-url") {
		cfg.DatabaseURL = o.databaseURL
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	o.cfg = cfg

	log := logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		Output:     cmd.ErrOrStderr(),
		JSON:       cfg.LogJSON,
		TimeFormat: logger.DefaultConfig().TimeFormat,
	})
	cmd.SetContext(logger.ContextWithLogger(cmd.Context(), log))
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "label-store version %s\n", version)
			fmt.Fprintf(out, "commit: %s\n", commit)
			fmt.Fprintf(out, "built at: %s\n", date)
		},
	}
}
