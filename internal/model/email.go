// Package model defines the core domain models used throughout the application.
package model

import (
	"crypto/sha256"
	"fmt"
)

// Envelope holds the immutable header fields of a fetched message.
type Envelope struct {
	Subject   string `json:"subject,omitempty"`
	From      string `json:"from,omitempty"`
	Date      string `json:"date,omitempty"`
	MessageID string `json:"messageId"`
}

// Content holds the normalized body of a message. Text and HTML are the
// markdown renditions of the respective MIME parts; Markdown is the richer of
// the two and is what classifiers and the content hash consume.
type Content struct {
	Text     string `json:"text"`
	HTML     string `json:"html"`
	Markdown string `json:"markdown"`
}

// Email is a fetched, normalized message ready for classification.
type Email struct {
	ID       string
	Envelope Envelope
	Content  Content
}

// Summary renders the envelope as classifier input.
func (e *Email) Summary() string {
	return fmt.Sprintf("Subject: %s\nFrom: %s\nDate: %s\n",
		e.Envelope.Subject, e.Envelope.From, e.Envelope.Date)
}

// ContentHash derives a stable 16-character fingerprint of an email's subject,
// sender and body, used for de-duplication and drift grouping across runs.
func ContentHash(subject, from, body string) string {
	content := fmt.Sprintf("%s|%s|%s", subject, from, body)
	sum := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", sum)[:16]
}
