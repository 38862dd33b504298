// modelbench generates seeded synthetic ML monitoring datasets,
// publishes them to S3, and automates model onboarding and governance
// workflows against the monitoring platform.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"modelbench/internal/config"
	"modelbench/internal/platform"
)

var (
	// Global flags
	verbose    bool
	configPath string
	authMode   string

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "modelbench",
	Short: "modelbench - synthetic ML monitoring datasets and platform automation",
	Long: `modelbench generates deterministic synthetic inference datasets for
model-monitoring demos (card fraud, credit applications, loan amounts,
housing prices, transaction categories, compliance alerts), publishes
them to S3, and automates the monitoring platform's REST API: model
onboarding, metric configuration, schema edits, and audit evidence
export.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// newPlatformClient authenticates against the platform and returns a
// client. Service-account credentials are used when configured or when
// --auth service-account is passed; otherwise the device-code flow
// prompts the user to authorize in a browser.
func newPlatformClient(ctx context.Context) (*platform.Client, error) {
	if err := cfg.ValidatePlatform(); err != nil {
		return nil, err
	}

	var tokens platform.TokenSource
	switch {
	case authMode == "service-account" || (authMode == "" && cfg.HasServiceAccount()):
		if !cfg.HasServiceAccount() {
			return nil, fmt.Errorf("service-account auth requires MODELBENCH_CLIENT_ID and MODELBENCH_CLIENT_SECRET")
		}
		tokens = platform.NewClientCredentials(cfg.Platform.Host, cfg.Platform.ClientID, cfg.Platform.ClientSecret)
	default:
		var err error
		tokens, err = platform.DeviceAuthorize(ctx, cfg.Platform.Host, cfg.Platform.ClientID, func(uri, code string) {
			fmt.Fprintf(os.Stderr, "To authorize, visit %s and enter code %s\n", uri, code)
		})
		if err != nil {
			return nil, fmt.Errorf("device authorization failed: %w", err)
		}
	}

	return platform.NewClient(cfg.Platform.Host, tokens, logger), nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "modelbench.yaml", "Config file path")
	rootCmd.PersistentFlags().StringVar(&authMode, "auth", "", "Authentication mode: device or service-account (default: service-account when credentials are configured)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(serviceAccountCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
