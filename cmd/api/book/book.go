package book

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Book struct {
	ID              string
	Title           string
	Author          string
	Genre           string
	PublicationYear int
	Availability    bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type CreateBookRequest struct {
	Title           string
	Author          string
	Genre           string
	PublicationYear int
	Availability    *bool //nil means the client did not send it.
}

// UpdateBookRequest carries a partial update. A nil field was not supplied by the client.
type UpdateBookRequest struct {
	ID              string
	Title           *string
	Author          *string
	Genre           *string
	PublicationYear *int
	Availability    *bool
}

/* Entry is a request body decoded into generic JSON values, before any type is trusted. */
type Entry map[string]any

const (
	MsgTitleRequired        = "Title is required and must be a non-empty string"
	MsgAuthorRequired       = "Author is required and must be a non-empty string"
	MsgGenreRequired        = "Genre is required and must be a non-empty string"
	MsgPublicationYearValid = "Publication year is required and must be a positive integer"
	MsgAvailabilityBoolean  = "Availability must be a boolean value"
)

/* Checks every field of the entry and returns all the violations found, in field order. An empty list means the entry is valid. */
func Validate(e Entry) []string {
	errs := []string{}

	if !filledString(e["title"]) {
		errs = append(errs, MsgTitleRequired)
	}
	if !filledString(e["author"]) {
		errs = append(errs, MsgAuthorRequired)
	}
	if !filledString(e["genre"]) {
		errs = append(errs, MsgGenreRequired)
	}

	// Zero counts as missing, so year 0 is rejected along with negatives.
	year, ok := integer(e["publicationYear"])
	if !ok || year == 0 || year < 0 {
		errs = append(errs, MsgPublicationYearValid)
	}

	if v, present := e["availability"]; present {
		if _, isBool := v.(bool); !isBool {
			errs = append(errs, MsgAvailabilityBoolean)
		}
	}

	return errs
}

/* Converts a validated entry into a CreateBookRequest. */
func (e Entry) CreateRequest() CreateBookRequest {
	req := CreateBookRequest{}
	req.Title, _ = e["title"].(string)
	req.Author, _ = e["author"].(string)
	req.Genre, _ = e["genre"].(string)
	if year, ok := integer(e["publicationYear"]); ok {
		req.PublicationYear = int(year)
	}
	if v, ok := e["availability"].(bool); ok {
		req.Availability = &v
	}
	return req
}

/* Converts an entry into an UpdateBookRequest, keeping track of which fields were sent. */
func (e Entry) UpdateRequest(id string) UpdateBookRequest {
	req := UpdateBookRequest{ID: id}
	if v, ok := e["title"].(string); ok {
		req.Title = &v
	}
	if v, ok := e["author"].(string); ok {
		req.Author = &v
	}
	if v, ok := e["genre"].(string); ok {
		req.Genre = &v
	}
	if year, ok := integer(e["publicationYear"]); ok {
		y := int(year)
		req.PublicationYear = &y
	}
	if v, ok := e["availability"].(bool); ok {
		req.Availability = &v
	}
	return req
}

/* Builds a new book from a validated request, with a fresh ID and both timestamps set to now. */
func New(req CreateBookRequest) Book {
	now := Now()

	availability := true
	if req.Availability != nil {
		availability = *req.Availability
	}

	return Book{
		ID:              uuid.NewString(),
		Title:           strings.TrimSpace(req.Title),
		Author:          strings.TrimSpace(req.Author),
		Genre:           strings.TrimSpace(req.Genre),
		PublicationYear: req.PublicationYear,
		Availability:    availability,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

/*
Applies a partial update in place. Strings are only overwritten when non-empty and the year
only when non-zero; availability is overwritten whenever it was sent, false included.
UpdatedAt is always refreshed. No uniqueness or type checks happen here.
*/
func (b *Book) Apply(req UpdateBookRequest) {
	if req.Title != nil && *req.Title != "" {
		b.Title = strings.TrimSpace(*req.Title)
	}
	if req.Author != nil && *req.Author != "" {
		b.Author = strings.TrimSpace(*req.Author)
	}
	if req.Genre != nil && *req.Genre != "" {
		b.Genre = strings.TrimSpace(*req.Genre)
	}
	if req.PublicationYear != nil && *req.PublicationYear != 0 {
		b.PublicationYear = *req.PublicationYear
	}
	if req.Availability != nil {
		b.Availability = *req.Availability
	}
	b.UpdatedAt = Now()
}

// Now is the clock used for book timestamps.
func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}

func filledString(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) != ""
}

type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
}

/* Reads an integral JSON number. Floats with no fractional part count as integers. */
func integer(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	case number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return integer(f)
	default:
		return 0, false
	}
}
