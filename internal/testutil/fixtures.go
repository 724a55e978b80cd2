// Package testutil provides fixture builders shared across test packages.
package testutil

import (
	"encoding/base64"

	"google.golang.org/api/gmail/v1"
)

// TextPart builds a text/plain leaf part with a base64url body.
func TextPart(body string) *gmail.MessagePart {
	return leafPart("text/plain", body)
}

// HTMLPart builds a text/html leaf part with a base64url body.
func HTMLPart(body string) *gmail.MessagePart {
	return leafPart("text/html", body)
}

// Multipart wraps parts in a multipart container of the given subtype
// (alternative, mixed, related).
func Multipart(subtype string, parts ...*gmail.MessagePart) *gmail.MessagePart {
	return &gmail.MessagePart{
		MimeType: "multipart/" + subtype,
		Parts:    parts,
	}
}

// Message builds a full Gmail message with standard headers around the given
// payload.
func Message(id, subject, from string, payload *gmail.MessagePart) *gmail.Message {
	payload.Headers = append(payload.Headers,
		&gmail.MessagePartHeader{Name: "Subject", Value: subject},
		&gmail.MessagePartHeader{Name: "From", Value: from},
		&gmail.MessagePartHeader{Name: "Message-ID", Value: "<" + id + "@example.com>"},
	)
	return &gmail.Message{Id: id, Payload: payload}
}

func leafPart(mimeType, body string) *gmail.MessagePart {
	return &gmail.MessagePart{
		MimeType: mimeType,
		Body: &gmail.MessagePartBody{
			Data: base64.RawURLEncoding.EncodeToString([]byte(body)),
		},
	}
}
