// Package llm provides the LLM-backed classification capabilities: spam
// verdicts, routing decisions, and ruleset edit proposals.
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/rules"
)

// Config holds LLM provider configuration.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Client exposes the classification capabilities backed by one provider.
type Client interface {
	// ClassifySpam evaluates an email against the ruleset.
	ClassifySpam(ctx context.Context, email *model.Email, ruleset string) (model.SpamVerdict, error)
	// ClassifyAction picks the routing action for a non-spam email under
	// the ruleset.
	ClassifyAction(ctx context.Context, email *model.Email, ruleset string) (model.RoutingDecision, error)
	// ProposeEdit suggests a fragment-level ruleset patch.
	ProposeEdit(ctx context.Context, req rules.EditRequest) (model.RuleEdit, error)
	// ModelVersion identifies the model for provenance records.
	ModelVersion() string
}

// completionProvider is the transport layer: one prompt in, raw text out.
type completionProvider interface {
	complete(ctx context.Context, system, prompt string) (string, error)
	modelName() string
}

// client implements Client on top of any completionProvider.
type client struct {
	provider completionProvider
}

// NewClient creates an LLM client based on the provided configuration.
func NewClient(cfg Config) (Client, error) {
	provider, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}
	return &client{provider: provider}, nil
}

func (c *client) ModelVersion() string {
	return c.provider.modelName()
}

func (c *client) ClassifySpam(ctx context.Context, email *model.Email, ruleset string) (model.SpamVerdict, error) {
	raw, err := c.provider.complete(ctx, spamSystemPrompt, buildSpamPrompt(email, ruleset))
	if err != nil {
		return model.SpamVerdict{}, err
	}

	var verdict model.SpamVerdict
	if err := json.Unmarshal([]byte(cleanMarkdownWrapper(raw)), &verdict); err != nil {
		return model.SpamVerdict{}, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return verdict, nil
}

func (c *client) ClassifyAction(ctx context.Context, email *model.Email, ruleset string) (model.RoutingDecision, error) {
	raw, err := c.provider.complete(ctx, actionSystemPrompt, buildActionPrompt(email, ruleset))
	if err != nil {
		return nil, err
	}

	var jsonResp struct {
		Category string `json:"category"`
		Message  string `json:"message,omitempty"`
		Summary  string `json:"summary,omitempty"`
		Body     string `json:"body,omitempty"`
	}
	if err := json.Unmarshal([]byte(cleanMarkdownWrapper(raw)), &jsonResp); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	switch model.Category(jsonResp.Category) {
	case model.CategoryReadToday:
		return model.ReadTodayDecision{}, nil
	case model.CategoryReadLater:
		return model.ReadLaterDecision{}, nil
	case model.CategoryNotifyImmediately:
		return model.NotifyDecision{Message: jsonResp.Message}, nil
	case model.CategoryDraftReply:
		return model.DraftReplyDecision{Summary: jsonResp.Summary, Body: jsonResp.Body}, nil
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownCategory, jsonResp.Category)
	}
}

func (c *client) ProposeEdit(ctx context.Context, req rules.EditRequest) (model.RuleEdit, error) {
	raw, err := c.provider.complete(ctx, editSystemPrompt, buildEditPrompt(req))
	if err != nil {
		return model.RuleEdit{}, err
	}

	var edit model.RuleEdit
	if err := json.Unmarshal([]byte(cleanMarkdownWrapper(raw)), &edit); err != nil {
		return model.RuleEdit{}, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return edit, nil
}
