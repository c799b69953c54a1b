package book

import (
	"context"
	"fmt"
	"strings"
)

type SearchType string

const (
	SearchByTitle  SearchType = "title"
	SearchByAuthor SearchType = "author"
	SearchByGenre  SearchType = "genre"
	SearchAll      SearchType = "all"
)

type Stats struct {
	TotalBooks         int
	AvailableBooks     int
	UnavailableBooks   int
	GenreDistribution  map[string]int
	AuthorDistribution map[string]int
}

/*
Returns the books whose designated field contains term, ignoring case, in store order.
Any type other than title, author or genre searches all three fields.
A blank term has to be rejected by the caller.
*/
func (s *Service) SearchBooks(ctx context.Context, term string, searchType SearchType) ([]Book, error) {
	books, err := s.repo.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("searching books: %w", err)
	}

	term = strings.ToLower(strings.TrimSpace(term))
	contains := func(field string) bool {
		return strings.Contains(strings.ToLower(field), term)
	}

	found := []Book{}
	for _, b := range books {
		var match bool
		switch searchType {
		case SearchByTitle:
			match = contains(b.Title)
		case SearchByAuthor:
			match = contains(b.Author)
		case SearchByGenre:
			match = contains(b.Genre)
		default:
			match = contains(b.Title) || contains(b.Author) || contains(b.Genre)
		}
		if match {
			found = append(found, b)
		}
	}
	return found, nil
}

/* Computes the catalog statistics in a single pass over the store. */
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	books, err := s.repo.ListBooks(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("computing stats: %w", err)
	}

	stats := Stats{
		GenreDistribution:  map[string]int{},
		AuthorDistribution: map[string]int{},
	}
	for _, b := range books {
		stats.TotalBooks++
		if b.Availability {
			stats.AvailableBooks++
		}
		stats.GenreDistribution[b.Genre]++
		stats.AuthorDistribution[b.Author]++
	}
	stats.UnavailableBooks = stats.TotalBooks - stats.AvailableBooks

	return stats, nil
}
