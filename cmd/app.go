package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jd-matcher/internal/ai"
	"github.com/spigell/jd-matcher/internal/ai/gemini"
	"github.com/spigell/jd-matcher/internal/ai/openai"
	"github.com/spigell/jd-matcher/internal/batch"
	"github.com/spigell/jd-matcher/internal/evaluator"
	"github.com/spigell/jd-matcher/internal/experience"
	"github.com/spigell/jd-matcher/internal/extraction"
	"github.com/spigell/jd-matcher/internal/logger"
	"github.com/spigell/jd-matcher/internal/matching"
	"github.com/spigell/jd-matcher/internal/metrics"
	"github.com/spigell/jd-matcher/internal/secrets"

	"github.com/spf13/viper"
)

const (
	providerOpenAI = "openai"
	providerGemini = "gemini"
)

// application holds what every command needs.
type application struct {
	config *Config
	logger *zap.Logger
}

func newApplication() (*application, error) {
	config, err := getConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	return &application{config: config, logger: log}, nil
}

// close flushes metrics and the logger.
func (a *application) close() {
	if path := strings.TrimSpace(a.config.MetricsFile); path != "" {
		if err := metrics.WriteFile(path); err != nil {
			a.logger.Error("failed to write metrics file", zap.String("path", path), zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

func (a *application) generator(ctx context.Context) (ai.Generator, error) {
	cfg := a.config.AI

	switch provider := strings.ToLower(strings.TrimSpace(cfg.Provider)); provider {
	case "", providerOpenAI:
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("ai.openai section is required for provider %s", providerOpenAI)
		}
		key, err := secrets.Load(secrets.Source{
			Name:  "openai api key",
			Value: cfg.OpenAI.APIKey,
			File:  cfg.OpenAI.APIKeyFile,
			Env:   "OPENAI_API_KEY",
		})
		if err != nil {
			return nil, err
		}
		gen, err := openai.NewGenerator(openai.Options{
			APIKey:      key,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			MaxRetries:  cfg.OpenAI.MaxRetries,
			Timeout:     cfg.OpenAI.Timeout,
			Temperature: cfg.OpenAI.Temperature,
			Logger:      a.logger,
		})
		if err != nil {
			return nil, err
		}
		return gen, nil
	case providerGemini:
		if cfg.Gemini == nil {
			return nil, fmt.Errorf("ai.gemini section is required for provider %s", providerGemini)
		}
		key, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: cfg.Gemini.APIKey,
			File:  cfg.Gemini.APIKeyFile,
			Env:   "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, err
		}
		gen, err := gemini.NewGenerator(ctx, gemini.Options{
			APIKey:      key,
			Model:       cfg.Gemini.Model,
			MaxRetries:  cfg.Gemini.MaxRetries,
			Temperature: cfg.Gemini.Temperature,
			Logger:      a.logger,
		})
		if err != nil {
			return nil, err
		}
		return gen, nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}

func (a *application) evaluator(ctx context.Context) (evaluator.Evaluator, error) {
	gen, err := a.generator(ctx)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("ai generator is ready",
		logger.CommonFields(gen.Provider(), gen.Model())...,
	)
	return metrics.InstrumentEvaluator(ai.NewEvaluator(gen, a.logger, a.config.AI.MaxLogLength)), nil
}

func (a *application) matchingConfig() (matching.Config, error) {
	src := a.config.Matching
	cfg := matching.DefaultConfig()

	cfg.ExperienceMargin = src.ExperienceMargin
	cfg.RecencyYears = src.RecencyYears
	cfg.CoreSkillsThreshold = src.CoreSkillsThreshold
	cfg.GreenFlags = src.GreenFlags
	cfg.Concurrency = src.Concurrency
	cfg.Model = src.Model
	if src.Timeout > 0 {
		cfg.Timeout = src.Timeout
	}
	if s := strings.TrimSpace(src.SkipAnalysisWhen); s != "" {
		cfg.SkipAnalysisWhen = s
	}

	weights, err := matching.ResolveWeights(matching.DefaultWeights, src.Weights)
	if err != nil {
		return cfg, fmt.Errorf("matching.weights: %w", err)
	}
	cfg.Weights = weights

	return cfg, nil
}

func (a *application) matcher(ev evaluator.Evaluator) (*matching.Matcher, error) {
	cfg, err := a.matchingConfig()
	if err != nil {
		return nil, err
	}
	return matching.NewMatcher(ev, cfg, a.logger, metrics.GraphObserver{})
}

func (a *application) jobExtractor(ev evaluator.Evaluator) (*extraction.JobExtractor, error) {
	models := a.config.Extraction.Models
	if len(models) == 0 {
		models = extraction.DefaultJobModels
	}
	return extraction.NewJobExtractor(ev, models, a.logger, metrics.GraphObserver{})
}

func (a *application) resumeExtractor(ev evaluator.Evaluator) (*extraction.ResumeExtractor, error) {
	src := a.config.Extraction
	cfg := extraction.DefaultResumeConfig()

	cfg.Model = src.Model
	cfg.RefinementModel = src.RefinementModel
	if src.GapToleranceMonths > 0 {
		cfg.GapToleranceMonths = src.GapToleranceMonths
	}
	cfg.TierRule = experience.TierRule{
		RecencyYears:      src.RecencyYears,
		MinDurationMonths: src.MinDurationMonths,
	}

	return extraction.NewResumeExtractor(ev, cfg, a.logger, metrics.GraphObserver{})
}

func (a *application) store(ctx context.Context) (*batch.RedisStore, error) {
	src := a.config.Redis

	password, err := secrets.Optional(secrets.Source{
		Name:  "redis password",
		Value: src.Password,
		File:  src.PasswordFile,
		Env:   "REDIS_PASSWORD",
	})
	if err != nil {
		return nil, err
	}

	store := batch.NewRedisStore(batch.NewRedisClient(batch.RedisOptions{
		Addr:     src.Addr,
		Password: password,
		DB:       src.DB,
	}), src.Prefix)

	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	a.logger.Debug("connected to redis", zap.String("addr", src.Addr), zap.Int("db", src.DB))

	return store, nil
}
