package runtime

import (
	"encoding/base64"
	"strings"

	gmailv1 "google.golang.org/api/gmail/v1"
)

// extractPlainText walks the MIME part tree and returns the first
// text/plain body, decoded from base64url. For multipart containers the
// text/plain alternative wins over text/html.
func extractPlainText(part *gmailv1.MessagePart) string {
	if part == nil {
		return ""
	}
	if strings.EqualFold(part.MimeType, "text/plain") && part.Body != nil {
		return decodeBody(part.Body.Data)
	}
	for _, sub := range part.Parts {
		if strings.EqualFold(sub.MimeType, "text/plain") {
			if body := extractPlainText(sub); body != "" {
				return body
			}
		}
	}
	for _, sub := range part.Parts {
		if body := extractPlainText(sub); body != "" {
			return body
		}
	}
	return ""
}

// extractHTML returns the first text/html body in the part tree.
func extractHTML(part *gmailv1.MessagePart) string {
	if part == nil {
		return ""
	}
	if strings.EqualFold(part.MimeType, "text/html") && part.Body != nil {
		return decodeBody(part.Body.Data)
	}
	for _, sub := range part.Parts {
		if body := extractHTML(sub); body != "" {
			return body
		}
	}
	return ""
}

var htmlEntities = strings.NewReplacer(
	"&amp;", "&", "&lt;", "<", "&gt;", ">",
	"&quot;", `"`, "&#39;", "'", "&nbsp;", " ",
)

// stripHTMLTags reduces an HTML body to scannable text. Tracking numbers
// sit in element text, so dropping every tag and separating the pieces
// with whitespace is good enough here. The body itself must keep its
// case: tracking numbers are case-significant.
func stripHTMLTags(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
			b.WriteByte('\n')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(htmlEntities.Replace(b.String()))
}

// decodeBody handles Gmail's base64url body data, padded or not.
func decodeBody(data string) string {
	if data == "" {
		return ""
	}
	b, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		b, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return ""
		}
	}
	return string(b)
}
