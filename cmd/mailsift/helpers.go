package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/mailsift/mailsift/internal/approval"
	"github.com/mailsift/mailsift/internal/config"
	"github.com/mailsift/mailsift/internal/dataset"
	"github.com/mailsift/mailsift/internal/dispatch"
	"github.com/mailsift/mailsift/internal/engine"
	"github.com/mailsift/mailsift/internal/llm"
	"github.com/mailsift/mailsift/internal/mail"
	"github.com/mailsift/mailsift/internal/rules"
	"github.com/mailsift/mailsift/internal/service"
)

func rulesPath() string {
	path := viper.GetString("rules.path")
	if path == "" {
		path = "$HOME/.config/mailsift/rules.md"
	}
	return config.ExpandPath(path)
}

func datasetsPath() string {
	path := viper.GetString("datasets.path")
	if path == "" {
		path = "$HOME/.local/share/mailsift/datasets"
	}
	return config.ExpandPath(path)
}

func initMail(ctx context.Context) (*mail.GmailClient, error) {
	tokenPath := viper.GetString("gmail.token_path")
	if tokenPath == "" {
		tokenPath = "$HOME/.config/mailsift/gmail-token.json"
	}
	return mail.NewGmailClient(ctx, config.ExpandPath(tokenPath))
}

func initLLM() (llm.Client, error) {
	cfg := llm.Config{
		Provider:    viper.GetString("llm.provider"),
		APIKey:      viper.GetString("llm.api_key"),
		Model:       viper.GetString("llm.model"),
		Temperature: viper.GetFloat64("llm.temperature"),
		MaxTokens:   viper.GetInt("llm.max_tokens"),
	}
	if cfg.Provider == "" {
		cfg.Provider = "anthropic"
	}
	return llm.NewClient(cfg)
}

// initCache returns the verdict cache, or nil when disabled.
func initCache() (*llm.VerdictCache, error) {
	if !viper.GetBool("cache.enabled") {
		return nil, nil
	}

	path := viper.GetString("cache.path")
	if path == "" {
		path = "$HOME/.local/share/mailsift/verdicts.db"
	}
	ttl := viper.GetDuration("cache.ttl")
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return llm.NewVerdictCache(config.ExpandPath(path), ttl)
}

// buildOrchestrator assembles the full pipeline from configuration.
func buildOrchestrator(ctx context.Context, progress func(done, total int)) (*engine.Orchestrator, *dataset.Recorder, func(), error) {
	mailClient, err := initMail(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize mail client: %w", err)
	}

	llmClient, err := initLLM()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	cache, err := initCache()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize verdict cache: %w", err)
	}
	cleanup := func() {
		if cache != nil {
			_ = cache.Close()
		}
	}

	store := rules.NewStore(rulesPath())
	repairer := rules.NewRepairer(llmClient)
	approver := approval.NewCLIApprover(nil, nil)
	gate := approval.NewGate(approver, repairer)

	dispatcher := dispatch.NewDispatcher(
		mailClient,
		approval.NewCLINotifier(nil),
		approval.NewCLIDraftReviewer(nil, nil),
	)

	recorder := dataset.NewRecorder(datasetsPath())

	cfg := engine.Config{
		Mail:         mailClient,
		Normalizer:   mail.NewMarkdownNormalizer(),
		Spam:         llmClient,
		Action:       llmClient,
		Gate:         gate,
		Dispatcher:   dispatcher,
		Rules:        store,
		Recorder:     recorder,
		ModelVersion: llmClient.ModelVersion(),
		Retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
		Progress: progress,
	}
	if cache != nil {
		cfg.Cache = cache
	}

	orch, err := engine.New(cfg)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	return orch, recorder, cleanup, nil
}
