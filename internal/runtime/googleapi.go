package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	gc "github.com/joshsymonds/parceltrack/internal/gmail"
)

type googleClient struct{ svc *gmailv1.Service }

// NewGoogleAPIClient adapts a Gmail service to the narrow client surface.
func NewGoogleAPIClient(svc *gmailv1.Service) gc.Client { return &googleClient{svc} }

func (g *googleClient) List(ctx context.Context, q gc.Query, pageToken string, pageSize int) (gc.ListPage, error) {
	call := g.svc.Users.Messages.List("me").Q(q.Raw).MaxResults(int64(pageSize))
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	res, err := call.Context(ctx).Do()
	if err != nil {
		return gc.ListPage{}, classify("list messages", err)
	}
	page := gc.ListPage{NextPageToken: res.NextPageToken}
	for _, m := range res.Messages {
		page.IDs = append(page.IDs, gc.MessageID(m.Id))
	}
	return page, nil
}

func (g *googleClient) Fetch(ctx context.Context, id gc.MessageID) (gc.Message, error) {
	msg, err := g.svc.Users.Messages.Get("me", string(id)).Format("full").Context(ctx).Do()
	if err != nil {
		return gc.Message{}, classify(fmt.Sprintf("fetch message %s", id), err)
	}
	out := gc.Message{ID: id}
	if msg.InternalDate > 0 {
		out.Date = time.UnixMilli(msg.InternalDate)
	}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch {
			case strings.EqualFold(h.Name, "From"):
				out.From = h.Value
			case strings.EqualFold(h.Name, "To"):
				out.To = h.Value
			case strings.EqualFold(h.Name, "Subject"):
				out.Subject = h.Value
			}
		}
		out.Body = extractPlainText(msg.Payload)
		if out.Body == "" {
			out.Body = stripHTMLTags(extractHTML(msg.Payload))
		}
	}
	return out, nil
}

// classify maps provider errors onto the run's error taxonomy: credential
// rejections need re-authorization, everything else is transport trouble
// and the whole run may simply be retried.
func classify(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%s: %w: %w", op, gc.ErrAuth, err)
		}
	}
	return fmt.Errorf("%s: %w: %w", op, gc.ErrNetwork, err)
}
