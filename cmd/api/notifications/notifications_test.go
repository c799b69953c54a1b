package notifications

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/book-catalog/cmd/api/book"
	"github.com/matryer/is"
)

func TestBookCreated(t *testing.T) {

	t.Run("publishes the new book to the topic without errors", func(t *testing.T) {
		is := is.New(t)

		received := make(chan *http.Request, 1)
		bodies := make(chan string, 1)
		topic := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			received <- r
			bodies <- string(body)
			w.WriteHeader(http.StatusOK)
		}))
		defer topic.Close()

		ntfy := NewNtfy(true, topic.URL+"/catalog_test/", topic.Client())

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		err := ntfy.BookCreated(ctx, "Dune", "Frank Herbert")
		is.NoErr(err)

		r := <-received
		is.Equal(r.Method, http.MethodPost)
		is.Equal(r.URL.Path, "/catalog_test") //Trailing slash is dropped from the topic URL.
		is.Equal(r.Header.Get("Title"), "New book created")
		is.Equal(<-bodies, "Title: Dune\nAuthor: Frank Herbert")
	})

	t.Run("does nothing when notifications are disabled", func(t *testing.T) {
		is := is.New(t)

		called := false
		topic := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer topic.Close()

		ntfy := NewNtfy(false, topic.URL, topic.Client())

		err := ntfy.BookCreated(context.Background(), "Dune", "Frank Herbert")
		is.NoErr(err)
		is.True(!called)
	})

	t.Run("expected notification failed error on non 2xx answer", func(t *testing.T) {
		is := is.New(t)

		topic := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer topic.Close()

		ntfy := NewNtfy(true, topic.URL, topic.Client())

		err := ntfy.BookCreated(context.Background(), "Dune", "Frank Herbert")
		var failed book.ErrNotificationFailed
		is.True(errors.As(err, &failed))
	})

	t.Run("expected context timeout error", func(t *testing.T) {
		is := is.New(t)

		release := make(chan struct{})
		topic := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer topic.Close()
		defer close(release)

		ntfy := NewNtfy(true, topic.URL, topic.Client())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := ntfy.BookCreated(ctx, "book to test context timeout", "Nobody")
		is.True(errors.Is(err, context.DeadlineExceeded))
	})
}
