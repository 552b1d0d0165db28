package cli

import (
	"fmt"
	"os"
	"time"

	"design-companion-be/internal/config"
	"design-companion-be/internal/pkg/logger"
	"design-companion-be/pkg/gemini"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	noColor bool
	timeout time.Duration

	// loadConfig is swapped in tests.
	loadConfig = config.Load
)

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "companionctl",
	Short: "Operate the design companion document library",
	Long: `companionctl - inspect and maintain the design companion's document stores

Uses the same environment (GEMINI_API_KEY, GEMINI_MODEL, CONFIG_FILE, ...)
as the API server and talks to the analysis service directly.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloured output")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Overall deadline for the command")
}

type env struct {
	cfg    *config.Config
	client *gemini.Client
}

// newEnv loads configuration and builds the analysis client. Logs go to the
// configured file only so they do not interleave with command output.
func newEnv() (*env, error) {
	cfg := loadConfig()
	if cfg.Keys.GoogleGemini == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	log := logger.NewZapLogger(logger.Config{
		Level:    cfg.Log.Level,
		FilePath: cfg.Log.FilePath,
	})
	client := gemini.NewClient(gemini.Config{
		BaseURL:           cfg.Ai.BaseURL,
		Model:             cfg.Ai.Model,
		SystemPrompt:      cfg.Ai.SystemPrompt,
		RequestTimeout:    cfg.Ai.RequestTimeout,
		PollInterval:      cfg.Library.PollInterval,
		MaxPollAttempts:   cfg.Library.MaxPollAttempts,
		MaxTokensPerChunk: cfg.Library.MaxTokensPerChunk,
		MaxOverlapTokens:  cfg.Library.MaxOverlapTokens,
	}, func() string { return cfg.Keys.GoogleGemini }, log)

	return &env{cfg: cfg, client: client}, nil
}
