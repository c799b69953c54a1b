package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/book-catalog/cmd/api/book"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
)

// json encodes responses exactly like encoding/json would.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonNumbers decodes request bodies keeping numbers as json.Number, so integers can be told apart from floats.
var jsonNumbers = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

type envelope struct {
	Success    bool     `json:"success"`
	Data       any      `json:"data,omitempty"`
	Error      string   `json:"error,omitempty"`
	Details    []string `json:"details,omitempty"`
	Total      *int     `json:"total,omitempty"`
	Message    string   `json:"message,omitempty"`
	SearchTerm string   `json:"searchTerm,omitempty"`
	SearchType string   `json:"searchType,omitempty"`
}

type BookResponse struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	Genre           string `json:"genre"`
	PublicationYear int    `json:"publicationYear"`
	Availability    bool   `json:"availability"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
}

type StatsResponse struct {
	TotalBooks         int            `json:"totalBooks"`
	AvailableBooks     int            `json:"availableBooks"`
	UnavailableBooks   int            `json:"unavailableBooks"`
	GenreDistribution  map[string]int `json:"genreDistribution"`
	AuthorDistribution map[string]int `json:"authorDistribution"`
}

type HealthResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
}

/*Copy the fields of a book object to an http layer struct with json tags*/
func bookToResponse(b book.Book) BookResponse {
	return BookResponse{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		Genre:           b.Genre,
		PublicationYear: b.PublicationYear,
		Availability:    b.Availability,
		CreatedAt:       formatTime(b.CreatedAt),
		UpdatedAt:       formatTime(b.UpdatedAt),
	}
}

func booksToResponse(books []book.Book) []BookResponse {
	results := make([]BookResponse, 0, len(books))
	for _, b := range books {
		results = append(results, bookToResponse(b))
	}
	return results
}

func statsToResponse(s book.Stats) StatsResponse {
	return StatsResponse{
		TotalBooks:         s.TotalBooks,
		AvailableBooks:     s.AvailableBooks,
		UnavailableBooks:   s.UnavailableBooks,
		GenreDistribution:  s.GenreDistribution,
		AuthorDistribution: s.AuthorDistribution,
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

/*Writes a JSON response into a http.ResponseWriter. */
func responseJSON(w http.ResponseWriter, status int, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		slog.Error("encoding response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(payload, '\n'))
}

func responseList(w http.ResponseWriter, books []BookResponse) {
	total := len(books)
	responseJSON(w, http.StatusOK, envelope{Success: true, Data: books, Total: &total})
}

var statusByCode = map[int]int{
	book.ErrResponseBookNotFound.Code:           http.StatusNotFound,
	book.ErrResponseBookDuplicate.Code:          http.StatusConflict,
	book.ErrResponseEntryInvalidJSON.Code:       http.StatusBadRequest,
	book.ErrResponseSearchQueryRequired.Code:    http.StatusBadRequest,
	book.ErrResponseAvailabilityNotBoolean.Code: http.StatusBadRequest,
	book.ErrResponseEntryTooLarge.Code:          http.StatusRequestEntityTooLarge,
	book.ErrResponseRateLimitExceeded.Code:      http.StatusTooManyRequests,
}

/* Maps an error onto its status code and error envelope. Unknown errors are logged and answered with a 500. */
func (h *BookHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr book.ValidationError
	if errors.As(err, &validationErr) {
		responseJSON(w, http.StatusBadRequest, envelope{
			Error:   book.ErrResponseValidationFailed.Message,
			Details: validationErr.Details,
		})
		return
	}

	var errResp book.ErrResponse
	if errors.As(err, &errResp) {
		if status, ok := statusByCode[errResp.Code]; ok {
			if status != http.StatusNotFound {
				h.logger.Info("request rejected", slog.String("request_id", middleware.GetReqID(r.Context())), slog.Any("error", err))
			}
			responseJSON(w, status, envelope{Error: errResp.Message})
			return
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		h.logger.Warn("request timed out", slog.String("request_id", middleware.GetReqID(r.Context())), slog.Any("error", err))
		responseJSON(w, http.StatusServiceUnavailable, envelope{Error: book.ErrResponseRequestTimeout.Message})
		return
	}

	h.logger.Error("unexpected error",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
	responseJSON(w, http.StatusInternalServerError, envelope{Error: "Internal server error"})
}
