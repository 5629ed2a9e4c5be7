package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/apresai/persona/internal/config"
	"github.com/apresai/persona/internal/dataset"
	"github.com/apresai/persona/internal/llm"
	"github.com/apresai/persona/internal/observability"
	"github.com/apresai/persona/internal/pipeline"
	"github.com/apresai/persona/internal/progress"
	"github.com/apresai/persona/internal/prompt"
	"github.com/apresai/persona/internal/reddit"
	"github.com/apresai/persona/internal/storage"
)

var Version = "dev"

// LogFileName is written inside the output directory unless --verbose.
const LogFileName = "persona_generator.log"

var rootCmd = &cobra.Command{
	Use:           "persona [reddit-url|username]",
	Short:         "Build a user persona from a Reddit account's public activity",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && flagFromDataset == "" {
			return cmd.Help()
		}
		return runGenerate(cmd, args)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "persona %s\n", Version)
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate <reddit-url|username>",
	Short: "Generate a persona document for a Reddit user",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGenerate,
}

var (
	flagOutputDir          string
	flagModel              string
	flagVerbose            bool
	flagTZ                 string
	flagFromDataset        string
	flagSaveDataset        string
	flagS3Bucket           string
	flagAnthropicAPIKey    string
	flagGeminiAPIKey       string
	flagRedditClientID     string
	flagRedditClientSecret string
)

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(statsCmd)

	f := rootCmd.PersistentFlags()
	f.StringVarP(&flagOutputDir, "output-dir", "o", "", "Directory for persona files (default output, or PERSONA_OUTPUT_DIR)")
	f.StringVarP(&flagModel, "model", "m", "", "Generation model: "+strings.Join(llm.Models(), ", ")+" (default haiku, or PERSONA_MODEL)")
	f.BoolVarP(&flagVerbose, "verbose", "v", false, "Log to stderr at debug level instead of the log file")
	f.StringVar(&flagTZ, "tz", "", "Timezone for activity hours and days (default UTC, or PERSONA_TZ)")
	f.StringVarP(&flagFromDataset, "from-dataset", "f", "", "Analyze a saved dataset JSON instead of fetching from Reddit")
	f.StringVar(&flagSaveDataset, "save-dataset", "", "Write the fetched dataset as JSON to this path")
	f.StringVar(&flagS3Bucket, "s3-bucket", "", "Publish the persona to this S3 bucket (overrides S3_BUCKET)")
	f.StringVar(&flagAnthropicAPIKey, "anthropic-api-key", "", "Anthropic API key (overrides ANTHROPIC_API_KEY env var)")
	f.StringVar(&flagGeminiAPIKey, "gemini-api-key", "", "Gemini API key (overrides GEMINI_API_KEY env var)")
	f.StringVar(&flagRedditClientID, "reddit-client-id", "", "Reddit app client ID (overrides REDDIT_CLIENT_ID)")
	f.StringVar(&flagRedditClientSecret, "reddit-client-secret", "", "Reddit app client secret (overrides REDDIT_CLIENT_SECRET)")
}

func Execute() error {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.OutputDir, flagOutputDir)
	override(&cfg.Model, flagModel)
	override(&cfg.Timezone, flagTZ)
	override(&cfg.S3Bucket, flagS3Bucket)
	override(&cfg.AnthropicAPIKey, flagAnthropicAPIKey)
	override(&cfg.GeminiAPIKey, flagGeminiAPIKey)
	override(&cfg.Reddit.ClientID, flagRedditClientID)
	override(&cfg.Reddit.ClientSecret, flagRedditClientSecret)

	if !llm.IsValidModel(cfg.Model) {
		return cfg, fmt.Errorf("invalid model %q: must be one of %s", cfg.Model, strings.Join(llm.Models(), ", "))
	}
	return cfg, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := checkAPIKeys(cfg); err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	username, err := resolveUsername(args)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger, logFile, closeLog, err := newLogger(cfg.OutputDir)
	if err != nil {
		return err
	}
	defer closeLog()

	shutdown, err := observability.InitTracer(ctx, "persona", Version)
	if err != nil {
		return err
	}
	defer shutdown(context.Background())

	gen, err := llm.New(ctx, llm.Config{
		Model:           cfg.Model,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		GeminiAPIKey:    cfg.GeminiAPIKey,
		AWSRegion:       cfg.AWSRegion,
	})
	if err != nil {
		return err
	}
	templates, err := prompt.Default()
	if err != nil {
		return err
	}

	p := &pipeline.Pipeline{
		Source:      newSource(ctx, cfg, logger),
		Generator:   gen,
		Templates:   templates,
		Logger:      logger,
		Location:    loc,
		SaveDataset: flagSaveDataset,
	}
	if cfg.S3Bucket != "" {
		pub, err := storage.NewS3(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.PublicBaseURL)
		if err != nil {
			return err
		}
		p.Publisher = pub
	}

	// Progress bar when logs are going to a file
	if !flagVerbose {
		r := progress.NewBarRenderer(os.Stdout)
		defer r.Finish()
		p.OnProgress = func(e progress.Event) {
			if e.Stage == progress.StageComplete {
				e.LogFile = logFile
			}
			r.Handle(e)
		}
	}

	logger.InfoContext(ctx, "Starting persona generation", "username", username, "model", cfg.Model, "timezone", cfg.Timezone)
	_, err = p.Run(ctx, username, cfg.OutputDir)
	return err
}

// resolveUsername reads the username from the argument, or from the saved
// dataset when none was given.
func resolveUsername(args []string) (string, error) {
	if len(args) > 0 {
		return reddit.ParseUsername(args[0])
	}
	if flagFromDataset == "" {
		return "", fmt.Errorf("a Reddit profile URL or username is required")
	}
	ds, err := dataset.Load(flagFromDataset)
	if err != nil {
		return "", err
	}
	if ds.Username == "" {
		return "", fmt.Errorf("dataset %s has no username; pass one as an argument", flagFromDataset)
	}
	return ds.Username, nil
}

func newSource(ctx context.Context, cfg config.Config, logger *slog.Logger) pipeline.Source {
	if flagFromDataset != "" {
		return dataset.FileSource{Path: flagFromDataset}
	}
	return reddit.New(ctx, reddit.OptionsFromConfig(cfg.Reddit), logger)
}

// newLogger logs to stderr in verbose mode, otherwise to a JSON log file
// in the output directory.
func newLogger(outputDir string) (*slog.Logger, string, func(), error) {
	if flagVerbose {
		return observability.InitLogger(observability.LogOptions{Level: slog.LevelDebug, Text: true}), "", func() {}, nil
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, "", nil, fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(outputDir, LogFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, "", nil, fmt.Errorf("open log file: %w", err)
	}
	logger := observability.InitLogger(observability.LogOptions{Writer: f, Level: slog.LevelInfo})
	return logger, path, func() { f.Close() }, nil
}

func checkAPIKeys(cfg config.Config) error {
	var missing string
	switch cfg.Model {
	case "haiku", "sonnet":
		if cfg.AnthropicAPIKey == "" {
			missing = "ANTHROPIC_API_KEY"
		}
	case "gemini-flash", "gemini-pro":
		if cfg.GeminiAPIKey == "" {
			missing = "GEMINI_API_KEY"
		}
	}
	if missing != "" {
		return fmt.Errorf("missing required environment variable: %s\nYou can also pass it via --anthropic-api-key or --gemini-api-key", missing)
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
