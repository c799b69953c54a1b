package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/book-catalog/cmd/api/book"
	"github.com/go-chi/chi/v5"
)

type BookHandler struct {
	bookService book.ServiceAPI
	logger      *slog.Logger
	startedAt   time.Time
}

func NewBookHandler(bookService book.ServiceAPI, logger *slog.Logger) *BookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookHandler{
		bookService: bookService,
		logger:      logger,
		startedAt:   time.Now(),
	}
}

/* Liveness probe, with the process uptime in seconds. */
func (h *BookHandler) health(w http.ResponseWriter, r *http.Request) {
	responseJSON(w, http.StatusOK, HealthResponse{
		Status:    "OK",
		Timestamp: formatTime(time.Now()),
		Uptime:    time.Since(h.startedAt).Seconds(),
	})
}

/* Returns every stored book. */
func (h *BookHandler) listBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.bookService.ListBooks(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	responseList(w, booksToResponse(books))
}

/* Returns the book with that specific ID. */
func (h *BookHandler) getBookById(w http.ResponseWriter, r *http.Request) {
	returnedBook, found, err := h.bookService.GetBook(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if !found {
		h.handleError(w, r, book.ErrResponseBookNotFound)
		return
	}

	responseJSON(w, http.StatusOK, envelope{Success: true, Data: bookToResponse(returnedBook)})
}

/* Validates the entry, then stores the entry as a new book. */
func (h *BookHandler) createBook(w http.ResponseWriter, r *http.Request) {
	entry, err := decodeEntry(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if details := book.Validate(entry); len(details) > 0 {
		h.handleError(w, r, book.NewValidationError(details))
		return
	}

	storedBook, err := h.bookService.CreateBook(r.Context(), entry.CreateRequest())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	responseJSON(w, http.StatusCreated, envelope{
		Success: true,
		Data:    bookToResponse(storedBook),
		Message: "Book created successfully",
	})
}

/* Validates the whole entry, then updates the asked book. */
func (h *BookHandler) updateBook(w http.ResponseWriter, r *http.Request) {
	entry, err := decodeEntry(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if details := book.Validate(entry); len(details) > 0 {
		h.handleError(w, r, book.NewValidationError(details))
		return
	}

	updatedBook, err := h.bookService.UpdateBook(r.Context(), entry.UpdateRequest(chi.URLParam(r, "id")))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	responseJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    bookToResponse(updatedBook),
		Message: "Book updated successfully",
	})
}

/* Changes only the availability flag of a book. */
func (h *BookHandler) updateAvailability(w http.ResponseWriter, r *http.Request) {
	entry, err := decodeEntry(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	availability, ok := entry["availability"].(bool)
	if !ok {
		h.handleError(w, r, book.ErrResponseAvailabilityNotBoolean)
		return
	}

	updatedBook, err := h.bookService.UpdateBook(r.Context(), book.UpdateBookRequest{
		ID:           chi.URLParam(r, "id"),
		Availability: &availability,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	responseJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    bookToResponse(updatedBook),
		Message: "Book availability updated successfully",
	})
}

/* Removes the book and answers with the removed record. */
func (h *BookHandler) deleteBook(w http.ResponseWriter, r *http.Request) {
	deletedBook, err := h.bookService.DeleteBook(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	responseJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    bookToResponse(deletedBook),
		Message: "Book deleted successfully",
	})
}

/* Searches by ?q= on the field chosen by ?type= (title, author, genre or all). */
func (h *BookHandler) searchBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	term := query.Get("q")
	if strings.TrimSpace(term) == "" {
		h.handleError(w, r, book.ErrResponseSearchQueryRequired)
		return
	}

	searchType := query.Get("type")
	if searchType == "" {
		searchType = string(book.SearchAll)
	}

	books, err := h.bookService.SearchBooks(r.Context(), term, book.SearchType(searchType))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	total := len(books)
	responseJSON(w, http.StatusOK, envelope{
		Success:    true,
		Data:       booksToResponse(books),
		Total:      &total,
		SearchTerm: term,
		SearchType: searchType,
	})
}

func (h *BookHandler) availableBooks(w http.ResponseWriter, r *http.Request) {
	h.booksByAvailability(w, r, true)
}

func (h *BookHandler) unavailableBooks(w http.ResponseWriter, r *http.Request) {
	h.booksByAvailability(w, r, false)
}

func (h *BookHandler) booksByAvailability(w http.ResponseWriter, r *http.Request, available bool) {
	books, err := h.bookService.ListBooksByAvailability(r.Context(), available)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	responseList(w, booksToResponse(books))
}

func (h *BookHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.bookService.Stats(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	responseJSON(w, http.StatusOK, envelope{Success: true, Data: statsToResponse(stats)})
}

func (h *BookHandler) notFound(w http.ResponseWriter, r *http.Request) {
	responseJSON(w, http.StatusNotFound, envelope{Error: "Not Found - " + r.URL.Path})
}

func (h *BookHandler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	responseJSON(w, http.StatusMethodNotAllowed, envelope{Error: "the " + r.Method + " method is not supported for this resource"})
}

/*
Reads the JSON body into an Entry. An empty body gives an empty entry, so validation reports the
missing fields instead of a parsing error.
*/
func decodeEntry(r *http.Request) (book.Entry, error) {
	entry := book.Entry{}
	err := jsonNumbers.NewDecoder(r.Body).Decode(&entry)
	if err == nil || errors.Is(err, io.EOF) {
		if entry == nil {
			entry = book.Entry{}
		}
		return entry, nil
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return nil, book.ErrResponseEntryTooLarge
	}
	return nil, book.ErrResponse{
		Code:    book.ErrResponseEntryInvalidJSON.Code,
		Message: book.ErrResponseEntryInvalidJSON.Message + " " + err.Error(),
	}
}
