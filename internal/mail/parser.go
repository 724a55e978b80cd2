package mail

import (
	"encoding/base64"
	"strings"

	"google.golang.org/api/gmail/v1"

	"github.com/mailsift/mailsift/internal/model"
)

// ExtractEnvelope pulls the triage-relevant headers out of a fetched message.
func ExtractEnvelope(msg *gmail.Message) model.Envelope {
	env := model.Envelope{MessageID: msg.Id}
	if msg.Payload == nil {
		return env
	}
	for _, h := range msg.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "subject":
			env.Subject = h.Value
		case "from":
			env.From = h.Value
		case "date":
			env.Date = h.Value
		case "message-id":
			env.MessageID = h.Value
		}
	}
	return env
}

// ExtractBody walks the MIME tree and returns the first text/plain and first
// text/html leaf bodies. Nested multipart containers (alternative, mixed,
// related) are descended into; a slot already filled by an earlier leaf is
// never overwritten.
func ExtractBody(payload *gmail.MessagePart) (text, html string) {
	if payload == nil {
		return "", ""
	}
	walkParts(payload, &text, &html)
	return text, html
}

func walkParts(part *gmail.MessagePart, text, html *string) {
	if *text != "" && *html != "" {
		return
	}

	switch {
	case part.MimeType == "text/plain" && *text == "":
		*text = decodeBody(part)
	case part.MimeType == "text/html" && *html == "":
		*html = decodeBody(part)
	case strings.HasPrefix(part.MimeType, "multipart/"):
		for _, child := range part.Parts {
			walkParts(child, text, html)
		}
	}
}

// decodeBody decodes a leaf part's base64url body. Gmail omits padding;
// both padded and unpadded forms are accepted.
func decodeBody(part *gmail.MessagePart) string {
	if part.Body == nil || part.Body.Data == "" {
		return ""
	}
	data, err := base64.URLEncoding.DecodeString(part.Body.Data)
	if err != nil {
		data, err = base64.RawURLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			return ""
		}
	}
	return string(data)
}

// CanonicalMarkdown picks the richer of the two normalized bodies as the
// canonical content: it feeds the classifiers and the content hash. Ties go
// to the plain-text rendition.
func CanonicalMarkdown(textMarkdown, htmlMarkdown string) string {
	if len(htmlMarkdown) > len(textMarkdown) {
		return htmlMarkdown
	}
	return textMarkdown
}
