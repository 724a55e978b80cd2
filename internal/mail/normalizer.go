package mail

import (
	"strings"

	"github.com/k3a/html2text"
)

// MarkdownNormalizer converts raw body parts into plain markdown-ish text.
// Plain text passes through; HTML is flattened with html2text.
type MarkdownNormalizer struct{}

// NewMarkdownNormalizer creates the default normalizer.
func NewMarkdownNormalizer() *MarkdownNormalizer {
	return &MarkdownNormalizer{}
}

// ToMarkdown normalizes the two body parts independently. Empty inputs stay
// empty.
func (n *MarkdownNormalizer) ToMarkdown(text, html string) (string, string, error) {
	textMarkdown := strings.TrimSpace(text)

	var htmlMarkdown string
	if strings.TrimSpace(html) != "" {
		htmlMarkdown = strings.TrimSpace(html2text.HTML2Text(html))
	}

	return textMarkdown, htmlMarkdown, nil
}
