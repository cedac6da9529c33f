package cmd

import (
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interest-filter/internal/ai/gemini"
	"github.com/spigell/interest-filter/internal/ai/prompts"
	"github.com/spigell/interest-filter/internal/domain"
	"github.com/spigell/interest-filter/internal/logger"
	"github.com/spigell/interest-filter/internal/places"
	"github.com/spigell/interest-filter/internal/validation"
)

const (
	app = "interest-filter"
)

type Config struct {
	AI         *AIConfig         `mapstructure:"ai"`
	Validation validation.Config `mapstructure:"validation"`
	PlacesFile string            `mapstructure:"places-file"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Prompt   string        `mapstructure:"prompt"`
	Gemini   gemini.Config `mapstructure:"gemini"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "interest-filter maps free-text wishes to interest tags and ranks places by them",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	bindEnv("ai.gemini.api-key", "GEMINI_API_KEY")
	bindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE")

	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.prompt", prompts.Default)
	viper.SetDefault("ai.gemini.model", gemini.DefaultModel)
	viper.SetDefault("ai.gemini.max-retries", gemini.DefaultMaxRetries)
	viper.SetDefault("ai.gemini.timeout", gemini.DefaultTimeout)
	viper.SetDefault("ai.gemini.max-output-tokens", gemini.DefaultMaxOutputTokens)
	viper.SetDefault("ai.gemini.requests-per-minute", 0)
	viper.SetDefault("ai.gemini.max-log-length", gemini.DefaultMaxLogLength)
	viper.SetDefault("validation.min-tags", validation.DefaultMinTags)
	viper.SetDefault("validation.max-tags", validation.DefaultMaxTags)
	viper.SetDefault("validation.advisory-confidence", validation.DefaultAdvisoryConfidence)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is interest-filter.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("places-file", "", "yaml file with places to rank (default is the built-in sample)")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("places-file", rootCmd.PersistentFlags().Lookup("places-file"))
}

func bindEnv(key, env string) {
	if err := viper.BindEnv(key, env); err != nil {
		log.Fatalf("binding %s environment variable: %v", env, err)
	}
}

func initConfig() {
	// .env is optional; variables already set in the environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional unless given explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.AI == nil {
		config.AI = &AIConfig{}
	}

	return config, nil
}

// setup builds the logger and the config shared by every command that runs the pipeline.
func setup() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if err := config.Validation.Validate(); err != nil {
		logger.Fatal("invalid validation config", zap.Error(err))
	}

	logger.Debug("starting", zap.String("version", version), zap.Any("validation", config.Validation))

	return logger, config
}

func loadPlaces(config *Config, logger *zap.Logger) []domain.Place {
	if config.PlacesFile == "" {
		return domain.SamplePlaces()
	}

	seed, err := places.LoadFile(config.PlacesFile)
	if err != nil {
		logger.Fatal("loading places", zap.Error(err))
	}

	logger.Debug("loaded places", zap.String("file", config.PlacesFile), zap.Int("count", len(seed)))
	return seed
}
