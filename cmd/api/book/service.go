package book

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type ServiceAPI interface {
	ListBooks(ctx context.Context) ([]Book, error)
	GetBook(ctx context.Context, id string) (Book, bool, error)
	CreateBook(ctx context.Context, req CreateBookRequest) (Book, error)
	UpdateBook(ctx context.Context, req UpdateBookRequest) (Book, error)
	DeleteBook(ctx context.Context, id string) (Book, error)
	SearchBooks(ctx context.Context, term string, searchType SearchType) ([]Book, error)
	ListBooksByAvailability(ctx context.Context, available bool) ([]Book, error)
	Stats(ctx context.Context) (Stats, error)
}

type Repository interface {
	ListBooks(ctx context.Context) ([]Book, error)
	ListBooksByAvailability(ctx context.Context, available bool) ([]Book, error)
	GetBookByID(ctx context.Context, id string) (Book, error)
	FindByTitleAuthor(ctx context.Context, title, author string) ([]Book, error)
	CreateBook(ctx context.Context, bookEntry Book) (Book, error)
	UpdateBook(ctx context.Context, bookEntry Book) (Book, error)
	DeleteBook(ctx context.Context, id string) (Book, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (Repository, driver.Tx, error)
}

type Notifier interface {
	BookCreated(ctx context.Context, title, author string) error
}

type Service struct {
	repo                 Repository
	ntfy                 Notifier
	notificationsTimeout time.Duration
	logger               *slog.Logger
}

/* ntfy may be nil, which turns notifications off. */
func NewService(repo Repository, ntfy Notifier, notificationsTimeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:                 repo,
		ntfy:                 ntfy,
		notificationsTimeout: notificationsTimeout,
		logger:               logger,
	}
}

func (s *Service) ListBooks(ctx context.Context) ([]Book, error) {
	books, err := s.repo.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	return books, nil
}

/* A missing book is reported through found=false, not as an error. */
func (s *Service) GetBook(ctx context.Context, id string) (Book, bool, error) {
	b, err := s.repo.GetBookByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrResponseBookNotFound) {
			return Book{}, false, nil
		}
		return Book{}, false, fmt.Errorf("getting book: %w", err)
	}
	return b, true, nil
}

/* Rejects the request if a book with the same title and author (case-insensitive) exists, otherwise stores a new book. */
func (s *Service) CreateBook(ctx context.Context, req CreateBookRequest) (Book, error) {
	txRepo, tx, err := s.repo.BeginTx(ctx, nil)
	if err != nil {
		return Book{}, fmt.Errorf("creating book: %w", err)
	}
	defer tx.Rollback()

	existing, err := txRepo.FindByTitleAuthor(ctx, strings.TrimSpace(req.Title), strings.TrimSpace(req.Author))
	if err != nil {
		return Book{}, fmt.Errorf("creating book: %w", err)
	}
	if len(existing) > 0 {
		return Book{}, fmt.Errorf("creating book: %w", ErrResponseBookDuplicate)
	}

	newBook, err := txRepo.CreateBook(ctx, New(req))
	if err != nil {
		return Book{}, fmt.Errorf("creating book: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Book{}, fmt.Errorf("creating book, committing: %w", err)
	}

	s.notifyCreated(newBook)
	return newBook, nil
}

/*
Applies a partial update to an existing book.
The duplicate check only runs when the payload carries both title and author: a payload that
omits either one never collides, so partial updates can rename a book into an existing
title/author pair. Kept as is until the intended behaviour is decided.
*/
func (s *Service) UpdateBook(ctx context.Context, req UpdateBookRequest) (Book, error) {
	txRepo, tx, err := s.repo.BeginTx(ctx, nil)
	if err != nil {
		return Book{}, fmt.Errorf("updating book: %w", err)
	}
	defer tx.Rollback()

	current, err := txRepo.GetBookByID(ctx, req.ID)
	if err != nil {
		return Book{}, fmt.Errorf("updating book: %w", err)
	}

	if req.Title != nil && req.Author != nil {
		existing, err := txRepo.FindByTitleAuthor(ctx, strings.TrimSpace(*req.Title), strings.TrimSpace(*req.Author))
		if err != nil {
			return Book{}, fmt.Errorf("updating book: %w", err)
		}
		for _, other := range existing {
			if other.ID != req.ID {
				return Book{}, fmt.Errorf("updating book: %w", ErrResponseBookDuplicate)
			}
		}
	}

	current.Apply(req)

	updatedBook, err := txRepo.UpdateBook(ctx, current)
	if err != nil {
		return Book{}, fmt.Errorf("updating book: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Book{}, fmt.Errorf("updating book, committing: %w", err)
	}
	return updatedBook, nil
}

func (s *Service) DeleteBook(ctx context.Context, id string) (Book, error) {
	deleted, err := s.repo.DeleteBook(ctx, id)
	if err != nil {
		return Book{}, fmt.Errorf("deleting book: %w", err)
	}
	return deleted, nil
}

func (s *Service) ListBooksByAvailability(ctx context.Context, available bool) ([]Book, error) {
	books, err := s.repo.ListBooksByAvailability(ctx, available)
	if err != nil {
		return nil, fmt.Errorf("listing books by availability: %w", err)
	}
	return books, nil
}

func (s *Service) notifyCreated(b Book) {
	if s.ntfy == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.notificationsTimeout)
		defer cancel()
		if err := s.ntfy.BookCreated(ctx, b.Title, b.Author); err != nil {
			s.logger.Warn("book created notification failed", slog.String("book_id", b.ID), slog.Any("error", err))
		}
	}()
}
