package runtime

import (
	"encoding/base64"
	"strings"
	"testing"

	gmailv1 "google.golang.org/api/gmail/v1"
)

func textPart(mimeType, body string, subs ...*gmailv1.MessagePart) *gmailv1.MessagePart {
	part := &gmailv1.MessagePart{MimeType: mimeType, Parts: subs}
	if body != "" {
		part.Body = &gmailv1.MessagePartBody{Data: base64.URLEncoding.EncodeToString([]byte(body))}
	}
	return part
}

func TestExtractPlainTextDirect(t *testing.T) {
	part := textPart("text/plain", "Track it: 1Z999AA10123456784")
	if got := extractPlainText(part); got != "Track it: 1Z999AA10123456784" {
		t.Fatalf("body = %q", got)
	}
}

func TestExtractPlainTextPrefersPlainAlternative(t *testing.T) {
	part := textPart("multipart/alternative", "",
		textPart("text/html", "<p>html body</p>"),
		textPart("text/plain", "plain body"),
	)
	if got := extractPlainText(part); got != "plain body" {
		t.Fatalf("body = %q", got)
	}
}

func TestExtractPlainTextNested(t *testing.T) {
	part := textPart("multipart/mixed", "",
		textPart("application/pdf", ""),
		textPart("multipart/alternative", "",
			textPart("text/plain", "nested plain body"),
		),
	)
	if got := extractPlainText(part); got != "nested plain body" {
		t.Fatalf("body = %q", got)
	}
}

func TestExtractHTMLFallback(t *testing.T) {
	part := textPart("multipart/alternative", "",
		textPart("text/html", `<div>Tracking ID <b>TBA123456789012</b> &amp; more</div>`),
	)
	if got := extractPlainText(part); got != "" {
		t.Fatalf("expected no plain text, got %q", got)
	}
	text := stripHTMLTags(extractHTML(part))
	if !strings.Contains(text, "TBA123456789012") {
		t.Fatalf("stripped html = %q", text)
	}
	if !strings.Contains(text, "&") {
		t.Fatalf("entities not decoded: %q", text)
	}
	if strings.Contains(text, "<") {
		t.Fatalf("tags left behind: %q", text)
	}
}

func TestExtractPlainTextUnpaddedBase64(t *testing.T) {
	raw := base64.RawURLEncoding.EncodeToString([]byte("unpadded body"))
	part := &gmailv1.MessagePart{
		MimeType: "text/plain",
		Body:     &gmailv1.MessagePartBody{Data: raw},
	}
	if got := extractPlainText(part); got != "unpadded body" {
		t.Fatalf("body = %q", got)
	}
}

func TestExtractPlainTextNil(t *testing.T) {
	if got := extractPlainText(nil); got != "" {
		t.Fatalf("body = %q", got)
	}
}
