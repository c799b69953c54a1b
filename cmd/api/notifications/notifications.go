package notifications

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/book-catalog/cmd/api/book"
)

/* Ntfy publishes catalog events to an ntfy topic. topicURL is the full topic address, e.g. https://ntfy.sh/my_topic */
type Ntfy struct {
	topicURL string
	enabled  bool
	client   *http.Client
}

func NewNtfy(enableNotifications bool, topicURL string, client *http.Client) *Ntfy {
	if client == nil {
		client = &http.Client{}
	}
	return &Ntfy{
		topicURL: strings.TrimRight(topicURL, "/"),
		enabled:  enableNotifications,
		client:   client,
	}
}

/* Announces a new book. Does nothing when notifications are disabled. The deadline comes from ctx. */
func (ntf *Ntfy) BookCreated(ctx context.Context, title, author string) error {
	if !ntf.enabled {
		return nil
	}

	message := fmt.Sprintf("Title: %s\nAuthor: %s", title, author)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ntf.topicURL, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("delivering message (%q) to topic (%s): %w", message, ntf.topicURL, err)
	}
	req.Header.Set("Title", "New book created")
	req.Header.Set("Tags", "books")

	resp, err := ntf.client.Do(req)
	if err != nil {
		return fmt.Errorf("delivering message (%q) to topic (%s): %w", message, ntf.topicURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("delivering message to topic (%s): %w", ntf.topicURL, book.NewErrNotificationFailed(resp.StatusCode))
	}
	return nil
}
