package gmail

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/bassamadnan/sheetcrm/crm"
)

// Client searches the authorized user's mailbox for threads with a contact.
type Client struct {
	srv    *gmail.Service
	query  string
	logger zerolog.Logger

	mu   sync.Mutex
	self string
}

// NewClient builds a Client on an authorized HTTP client. query is a template
// containing AddressPlaceholder; empty selects DefaultQuery.
func NewClient(ctx context.Context, httpClient *http.Client, query string, logger zerolog.Logger, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	srv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	if query == "" {
		query = DefaultQuery
	}
	return &Client{srv: srv, query: query, logger: logger.With().Str("component", "gmail").Logger()}, nil
}

// SelfAddress returns the mailbox owner's address from the Gmail profile.
func (c *Client) SelfAddress(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.self != "" {
		return c.self, nil
	}
	profile, err := c.srv.Users.GetProfile(user).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to get Gmail profile: %w", err)
	}
	c.self = profile.EmailAddress
	return c.self, nil
}

// SearchThreads returns every thread matching the query for other. self is
// implied by the authorized mailbox.
func (c *Client) SearchThreads(ctx context.Context, _, other string) ([]crm.Thread, error) {
	q := BuildQuery(c.query, other)

	var ids []string
	err := c.srv.Users.Threads.List(user).Q(q).Pages(ctx, func(resp *gmail.ListThreadsResponse) error {
		for _, th := range resp.Threads {
			ids = append(ids, th.Id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing threads for %q: %w", q, err)
	}
	c.logger.Debug().Str("query", q).Int("threads", len(ids)).Msg("search complete")

	threads := make([]crm.Thread, 0, len(ids))
	for _, id := range ids {
		full, err := c.srv.Users.Threads.Get(user, id).
			Format("metadata").
			MetadataHeaders("From", "Date").
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve thread %s: %w", id, err)
		}
		threads = append(threads, c.convertThread(full))
	}
	return threads, nil
}

func (c *Client) convertThread(th *gmail.Thread) crm.Thread {
	out := crm.Thread{ID: th.Id, Messages: make([]crm.Message, 0, len(th.Messages))}
	for _, msg := range th.Messages {
		m := crm.Message{
			ID:      msg.Id,
			Starred: slices.Contains(msg.LabelIds, starredLabel),
		}
		if msg.InternalDate > 0 {
			m.Date = time.UnixMilli(msg.InternalDate)
		}
		if msg.Payload != nil {
			for _, header := range msg.Payload.Headers {
				switch header.Name {
				case "From":
					m.From = header.Value
				case "Date":
					if !m.Date.IsZero() {
						continue
					}
					if parsed, ok := parseDate(header.Value); ok {
						m.Date = parsed
					} else {
						c.logger.Warn().Str("date", header.Value).Str("message_id", msg.Id).Msg("could not parse date header")
					}
				}
			}
		}
		if m.Date.After(out.LastMessageAt) {
			out.LastMessageAt = m.Date
		}
		out.Messages = append(out.Messages, m)
	}
	return out
}
