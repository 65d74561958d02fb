package cmd

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mvdham/permitctl/citypermit"
	"github.com/mvdham/permitctl/config"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
	client  *citypermit.Client

	// Command flags
	filterExpr string
	preset     string
	noConfirm  bool
)

var (
	appVersion = "dev"
	buildTime  = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "permitctl",
	Short: "A tool to manage CityPermit visitor parking from the command line",
	Long: `permitctl talks to the CityPermit parking service: check your permit
balance and paid-parking hours, start and end visitor reservations, and
manage favorite license plates.`,
	PersistentPreRunE: initializeApp,
}

// SetVersion records the build information injected by the linker.
func SetVersion(version, built string) {
	appVersion = version
	buildTime = built
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	rootCmd.AddCommand(versionCmd)
}

// initializeApp initializes the configuration and the API client
func initializeApp(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger = setupLogger(cfg.Logging)

	// The transport is owned here; the client only borrows it.
	httpClient := &http.Client{
		Timeout: time.Duration(cfg.Service.TimeoutSeconds) * time.Second,
	}

	opts := []citypermit.Option{
		citypermit.WithUserAgent("permitctl/" + appVersion),
	}
	if cfg.Service.PermitMediaTypeID != 0 {
		opts = append(opts, citypermit.WithPermitMediaTypeID(cfg.Service.PermitMediaTypeID))
	}

	client, err = citypermit.NewClient(httpClient, cfg.Service.URL, cfg.Service.Username, cfg.Service.Password, logger, opts...)
	if err != nil {
		return fmt.Errorf("failed to create CityPermit client: %w", err)
	}

	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// versionCmd prints build information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("permitctl %s (built %s)\n", appVersion, buildTime)
	},
}

// getFilterExpression determines the filter expression to use, if any
func getFilterExpression() (string, error) {
	// Priority: command line filter > preset > default
	if filterExpr != "" {
		return filterExpr, nil
	}

	if preset != "" {
		if presetFilter, ok := cfg.Filter.Presets[preset]; ok {
			return presetFilter, nil
		}
		return "", fmt.Errorf("preset '%s' not found in config", preset)
	}

	return cfg.Filter.DefaultExpression, nil
}

// confirm asks the user before a destructive step unless confirmation is
// disabled in config or by flag.
func confirm(prompt string) bool {
	if noConfirm || !cfg.Safety.ConfirmEnd {
		return true
	}

	fmt.Printf("%s [y/N]: ", prompt)
	var response string
	fmt.Scanln(&response)
	return strings.ToLower(strings.TrimSpace(response)) == "y"
}
