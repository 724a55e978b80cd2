// Package mail provides mailbox access and message normalization: a Gmail
// client, MIME body extraction, and HTML to markdown conversion.
package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// tokenFile is the stored OAuth credential shape. The token is minted out of
// band; this client only consumes and refreshes it.
type tokenFile struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// GmailClient implements mailbox access against the Gmail API.
type GmailClient struct {
	svc *gmail.Service

	mu       sync.Mutex
	labelIDs map[string]string // label name -> Gmail label id
}

// NewGmailClient builds a client from a stored token file.
func NewGmailClient(ctx context.Context, tokenPath string) (*GmailClient, error) {
	data, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("reading token file %s: %w", tokenPath, err)
	}

	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing token file %s: %w", tokenPath, err)
	}
	if tf.ClientID == "" || tf.ClientSecret == "" || tf.RefreshToken == "" {
		return nil, fmt.Errorf("token file %s is missing credentials", tokenPath)
	}

	conf := &oauth2.Config{
		ClientID:     tf.ClientID,
		ClientSecret: tf.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailModifyScope},
	}
	token := &oauth2.Token{
		AccessToken:  tf.AccessToken,
		RefreshToken: tf.RefreshToken,
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(conf.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("creating gmail service: %w", err)
	}

	return &GmailClient{
		svc:      svc,
		labelIDs: make(map[string]string),
	}, nil
}

// ListMessageIDs returns up to limit inbox message ids, newest first.
func (g *GmailClient) ListMessageIDs(ctx context.Context, limit int) ([]string, error) {
	resp, err := g.svc.Users.Messages.List("me").
		LabelIds("INBOX").
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

// FetchRaw retrieves the full message payload.
func (g *GmailClient) FetchRaw(ctx context.Context, id string) (*gmail.Message, error) {
	msg, err := g.svc.Users.Messages.Get("me", id).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("fetching message %s: %w", id, err)
	}
	return msg, nil
}

// systemLabels have fixed Gmail ids and are never created.
var systemLabels = map[string]bool{
	"SPAM":      true,
	"INBOX":     true,
	"TRASH":     true,
	"UNREAD":    true,
	"STARRED":   true,
	"IMPORTANT": true,
}

// ApplyLabel attaches a label to a message. User labels are created on
// demand; a label that already exists is reused. Re-applying a label a
// message already carries is a no-op on the Gmail side.
func (g *GmailClient) ApplyLabel(ctx context.Context, id, label string) error {
	labelID := label
	if !systemLabels[label] {
		var err error
		labelID, err = g.ensureLabel(ctx, label)
		if err != nil {
			return err
		}
	}

	_, err := g.svc.Users.Messages.Modify("me", id, &gmail.ModifyMessageRequest{
		AddLabelIds: []string{labelID},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("labeling message %s with %s: %w", id, label, err)
	}
	return nil
}

// ensureLabel resolves a user label name to its Gmail id, creating the label
// if it does not exist yet.
func (g *GmailClient) ensureLabel(ctx context.Context, name string) (string, error) {
	g.mu.Lock()
	if id, ok := g.labelIDs[name]; ok {
		g.mu.Unlock()
		return id, nil
	}
	g.mu.Unlock()

	created, err := g.svc.Users.Labels.Create("me", &gmail.Label{
		Name:                  name,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err == nil {
		g.cacheLabel(name, created.Id)
		return created.Id, nil
	}

	// A conflict means someone (possibly us, in an earlier run) already
	// created the label; look it up instead.
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusConflict {
		return "", fmt.Errorf("creating label %s: %w", name, err)
	}

	labels, err := g.svc.Users.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("listing labels: %w", err)
	}
	for _, l := range labels.Labels {
		if l.Name == name {
			g.cacheLabel(name, l.Id)
			return l.Id, nil
		}
	}
	return "", fmt.Errorf("label %s conflicted on create but was not found", name)
}

func (g *GmailClient) cacheLabel(name, id string) {
	g.mu.Lock()
	g.labelIDs[name] = id
	g.mu.Unlock()
}
