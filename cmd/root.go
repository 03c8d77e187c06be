package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app       = "jd-matcher"
	envPrefix = "JDM"
)

type Config struct {
	AI          *AIConfig         `mapstructure:"ai"`
	Matching    *MatchingConfig   `mapstructure:"matching"`
	Extraction  *ExtractionConfig `mapstructure:"extraction"`
	Redis       *RedisConfig      `mapstructure:"redis"`
	Batch       *BatchConfig      `mapstructure:"batch"`
	MetricsFile string            `mapstructure:"metrics-file"`
}

type AIConfig struct {
	Provider     string        `mapstructure:"provider"`
	MaxLogLength int           `mapstructure:"max-log-length"`
	Gemini       *GeminiConfig `mapstructure:"gemini"`
	OpenAI       *OpenAIConfig `mapstructure:"openai"`
}

type GeminiConfig struct {
	APIKey      string   `mapstructure:"api-key"`
	APIKeyFile  string   `mapstructure:"api-key-file"`
	Model       string   `mapstructure:"model"`
	MaxRetries  int      `mapstructure:"max-retries"`
	Temperature *float32 `mapstructure:"temperature"`
}

type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api-key"`
	APIKeyFile  string        `mapstructure:"api-key-file"`
	BaseURL     string        `mapstructure:"base-url"`
	Model       string        `mapstructure:"model"`
	MaxRetries  int           `mapstructure:"max-retries"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature *float64      `mapstructure:"temperature"`
}

type MatchingConfig struct {
	ExperienceMargin    float64            `mapstructure:"experience-margin"`
	RecencyYears        int                `mapstructure:"responsibilities-recency-years"`
	CoreSkillsThreshold float64            `mapstructure:"core-skills-threshold"`
	GreenFlags          bool               `mapstructure:"green-flags"`
	SkipAnalysisWhen    string             `mapstructure:"skip-analysis-when"`
	Concurrency         int                `mapstructure:"concurrency"`
	Timeout             time.Duration      `mapstructure:"timeout"`
	Model               string             `mapstructure:"model"`
	Weights             map[string]float64 `mapstructure:"weights"`
}

type ExtractionConfig struct {
	Models             []string `mapstructure:"models"`
	Model              string   `mapstructure:"model"`
	RefinementModel    string   `mapstructure:"refinement-model"`
	GapToleranceMonths int      `mapstructure:"gap-tolerance-months"`
	RecencyYears       int      `mapstructure:"recency-years"`
	MinDurationMonths  int      `mapstructure:"min-duration-months"`
}

type RedisConfig struct {
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	PasswordFile string `mapstructure:"password-file"`
	DB           int    `mapstructure:"db"`
	Prefix       string `mapstructure:"prefix"`
}

type BatchConfig struct {
	Limit int `mapstructure:"limit"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "jd-matcher scores resumes against job descriptions",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

// Execute executes the root command. Interrupts cancel the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jd-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// A missing default config is fine, a broken one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.max-log-length", 200)

	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.model", "gemini-2.5-pro")
	v.SetDefault("ai.gemini.max-retries", 3)

	v.SetDefault("ai.openai.api-key", "")
	v.SetDefault("ai.openai.api-key-file", "")
	v.SetDefault("ai.openai.base-url", "https://api.openai.com/v1")
	v.SetDefault("ai.openai.model", "gpt-4o-2024-08-06")
	v.SetDefault("ai.openai.max-retries", 3)
	v.SetDefault("ai.openai.timeout", 2*time.Minute)

	v.SetDefault("matching.experience-margin", 2)
	v.SetDefault("matching.responsibilities-recency-years", 2)
	v.SetDefault("matching.core-skills-threshold", 0.5)
	v.SetDefault("matching.green-flags", false)
	v.SetDefault("matching.skip-analysis-when", "job?.UpdatedWeights ?? false")
	v.SetDefault("matching.concurrency", 0)
	v.SetDefault("matching.timeout", 5*time.Minute)
	v.SetDefault("matching.model", "")

	v.SetDefault("extraction.models", []string{"gpt-4o-2024-08-06", "gpt-4-turbo-2024-04-09"})
	v.SetDefault("extraction.model", "")
	v.SetDefault("extraction.refinement-model", "")
	v.SetDefault("extraction.gap-tolerance-months", 3)
	v.SetDefault("extraction.recency-years", 2)
	v.SetDefault("extraction.min-duration-months", 6)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.password-file", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "jdm")

	v.SetDefault("batch.limit", 5)
	v.SetDefault("metrics-file", "")
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if config == nil || config.AI == nil || config.Matching == nil || config.Extraction == nil ||
		config.Redis == nil || config.Batch == nil {
		return nil, errors.New("config is incomplete")
	}
	return config, nil
}
