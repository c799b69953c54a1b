package inmemory_test

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/book-catalog/cmd/api/book"
	"github.com/book-catalog/cmd/api/inmemory"
	"github.com/google/uuid"
	"github.com/matryer/is"
)

var ctx context.Context = context.Background()

func newBook(title, author string) book.Book {
	now := time.Now().UTC().Round(time.Millisecond)
	return book.Book{
		ID:              uuid.NewString(),
		Title:           title,
		Author:          author,
		Genre:           "Fiction",
		PublicationYear: 2000,
		Availability:    true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestNewInMemoryStore(t *testing.T) {

	t.Run("keeps the seed order", func(t *testing.T) {
		is := is.New(t)

		store, err := inmemory.NewInMemoryStore(book.SeedBooks()...)
		is.NoErr(err)

		books, err := store.ListBooks(ctx)
		is.NoErr(err)
		is.Equal(len(books), 4)
		for i, b := range books {
			compareBooks(is, b, book.SeedBooks()[i])
		}
	})

	t.Run("starts empty without seed", func(t *testing.T) {
		is := is.New(t)

		store, err := inmemory.NewInMemoryStore()
		is.NoErr(err)

		books, err := store.ListBooks(ctx)
		is.NoErr(err)
		is.Equal(len(books), 0)
	})

	t.Run("collapses repeated IDs in the seed", func(t *testing.T) {
		is := is.New(t)

		seed := book.SeedBooks()
		seed[1].ID = seed[0].ID

		// The second row replaces the first one.
		store, err := inmemory.NewInMemoryStore(seed...)
		is.NoErr(err)
		books, err := store.ListBooks(ctx)
		is.NoErr(err)
		is.Equal(len(books), 3)
	})
}

func TestCreateBook(t *testing.T) {
	store, err := inmemory.NewInMemoryStore()
	if err != nil {
		log.Fatalln(err)
	}

	t.Run("creates a book without errors", func(t *testing.T) {
		is := is.New(t)

		b := newBook("A new book", "Someone")

		created, err := store.CreateBook(ctx, b)
		is.NoErr(err)
		compareBooks(is, created, b)

		stored, err := store.GetBookByID(ctx, b.ID)
		is.NoErr(err)
		compareBooks(is, stored, b)
	})

	t.Run("appends books at the end of the listing", func(t *testing.T) {
		is := is.New(t)

		first, err := store.CreateBook(ctx, newBook("First", "Someone"))
		is.NoErr(err)
		second, err := store.CreateBook(ctx, newBook("Second", "Someone"))
		is.NoErr(err)

		books, err := store.ListBooks(ctx)
		is.NoErr(err)
		is.Equal(books[len(books)-2].ID, first.ID)
		is.Equal(books[len(books)-1].ID, second.ID)
	})
}

func TestGetBookByID(t *testing.T) {
	store, err := inmemory.NewInMemoryStore(book.SeedBooks()...)
	if err != nil {
		log.Fatalln(err)
	}

	t.Run("gets a seeded book", func(t *testing.T) {
		is := is.New(t)

		b, err := store.GetBookByID(ctx, "3")
		is.NoErr(err)
		compareBooks(is, b, book.SeedBooks()[2])
	})

	t.Run("fails with not found on an unknown ID", func(t *testing.T) {
		is := is.New(t)

		returnedBook, err := store.GetBookByID(ctx, "42")
		is.True(errors.Is(err, book.ErrResponseBookNotFound))
		compareBooks(is, returnedBook, book.Book{})
	})
}

func TestFindByTitleAuthor(t *testing.T) {
	store, err := inmemory.NewInMemoryStore(book.SeedBooks()...)
	if err != nil {
		log.Fatalln(err)
	}

	t.Run("matches ignoring case", func(t *testing.T) {
		is := is.New(t)

		found, err := store.FindByTitleAuthor(ctx, "THE GREAT GATSBY", "f. scott fitzgerald")
		is.NoErr(err)
		is.Equal(len(found), 1)
		is.Equal(found[0].ID, "4")
	})

	t.Run("needs both title and author to match", func(t *testing.T) {
		is := is.New(t)

		found, err := store.FindByTitleAuthor(ctx, "The Great Gatsby", "Harper Lee")
		is.NoErr(err)
		is.Equal(len(found), 0)
	})

	t.Run("does not match prefixes", func(t *testing.T) {
		is := is.New(t)

		found, err := store.FindByTitleAuthor(ctx, "The Great", "F. Scott Fitzgerald")
		is.NoErr(err)
		is.Equal(len(found), 0)
	})
}

func TestListBooksByAvailability(t *testing.T) {
	store, err := inmemory.NewInMemoryStore(book.SeedBooks()...)
	if err != nil {
		log.Fatalln(err)
	}

	t.Run("splits the catalog by availability", func(t *testing.T) {
		is := is.New(t)

		available, err := store.ListBooksByAvailability(ctx, true)
		is.NoErr(err)
		unavailable, err := store.ListBooksByAvailability(ctx, false)
		is.NoErr(err)

		is.Equal(len(available), 3)
		is.Equal(len(unavailable), 1)
		is.Equal(unavailable[0].ID, "2")
	})
}

func TestUpdateBook(t *testing.T) {
	store, err := inmemory.NewInMemoryStore(book.SeedBooks()...)
	if err != nil {
		log.Fatalln(err)
	}

	t.Run("updates a book keeping its creation time and position", func(t *testing.T) {
		is := is.New(t)

		b := book.SeedBooks()[0]
		b.Title = "Go Set a Watchman"
		b.Availability = false
		b.CreatedAt = time.Now().UTC()
		b.UpdatedAt = time.Now().UTC().Round(time.Millisecond)

		updatedBook, err := store.UpdateBook(ctx, b)
		is.NoErr(err)
		is.Equal(updatedBook.Title, "Go Set a Watchman")
		is.True(!updatedBook.Availability)
		is.True(updatedBook.CreatedAt.Equal(book.SeedBooks()[0].CreatedAt))
		is.True(updatedBook.UpdatedAt.Equal(b.UpdatedAt))

		books, err := store.ListBooks(ctx)
		is.NoErr(err)
		is.Equal(books[0].ID, b.ID)
		is.Equal(books[0].Title, "Go Set a Watchman")

		found, err := store.FindByTitleAuthor(ctx, "To Kill a Mockingbird", "Harper Lee")
		is.NoErr(err)
		is.Equal(len(found), 0)
	})

	t.Run("fails with not found on an unknown ID", func(t *testing.T) {
		is := is.New(t)

		returnedBook, err := store.UpdateBook(ctx, newBook("Nowhere", "Nobody"))
		is.True(errors.Is(err, book.ErrResponseBookNotFound))
		compareBooks(is, returnedBook, book.Book{})
	})
}

func TestDeleteBook(t *testing.T) {
	store, err := inmemory.NewInMemoryStore(book.SeedBooks()...)
	if err != nil {
		log.Fatalln(err)
	}

	t.Run("deletes a book and returns it", func(t *testing.T) {
		is := is.New(t)

		deleted, err := store.DeleteBook(ctx, "2")
		is.NoErr(err)
		compareBooks(is, deleted, book.SeedBooks()[1])

		_, err = store.GetBookByID(ctx, "2")
		is.True(errors.Is(err, book.ErrResponseBookNotFound))

		books, err := store.ListBooks(ctx)
		is.NoErr(err)
		is.Equal(len(books), 3)
		is.Equal(books[1].ID, "3")
	})

	t.Run("fails with not found when deleting twice", func(t *testing.T) {
		is := is.New(t)

		_, err := store.DeleteBook(ctx, "2")
		is.True(errors.Is(err, book.ErrResponseBookNotFound))
	})
}

func TestBeginTx(t *testing.T) {

	t.Run("hides writes from other readers until commit", func(t *testing.T) {
		is := is.New(t)
		store, err := inmemory.NewInMemoryStore()
		is.NoErr(err)

		txStore, tx, err := store.BeginTx(ctx, nil)
		is.NoErr(err)
		defer tx.Rollback()

		b := newBook("Inside a transaction", "Someone")
		_, err = txStore.CreateBook(ctx, b)
		is.NoErr(err)

		_, err = txStore.GetBookByID(ctx, b.ID)
		is.NoErr(err)
		_, err = store.GetBookByID(ctx, b.ID)
		is.True(errors.Is(err, book.ErrResponseBookNotFound))

		is.NoErr(tx.Commit())

		stored, err := store.GetBookByID(ctx, b.ID)
		is.NoErr(err)
		compareBooks(is, stored, b)
	})

	t.Run("discards writes on rollback", func(t *testing.T) {
		is := is.New(t)
		store, err := inmemory.NewInMemoryStore(book.SeedBooks()...)
		is.NoErr(err)

		txStore, tx, err := store.BeginTx(ctx, nil)
		is.NoErr(err)
		_, err = txStore.DeleteBook(ctx, "1")
		is.NoErr(err)
		is.NoErr(tx.Rollback())

		_, err = store.GetBookByID(ctx, "1")
		is.NoErr(err)
	})

	t.Run("opens read only transactions", func(t *testing.T) {
		is := is.New(t)
		store, err := inmemory.NewInMemoryStore(book.SeedBooks()...)
		is.NoErr(err)

		txStore, tx, err := store.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
		is.NoErr(err)
		defer tx.Rollback()

		books, err := txStore.ListBooks(ctx)
		is.NoErr(err)
		is.Equal(len(books), 4)
	})

	t.Run("refuses a cancelled context", func(t *testing.T) {
		is := is.New(t)
		store, err := inmemory.NewInMemoryStore()
		is.NoErr(err)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, _, err = store.BeginTx(cancelled, nil)
		is.True(errors.Is(err, context.Canceled))
	})
}

func compareBooks(is *is.I, a, b book.Book) {
	is.Helper()

	// Make sure we have the correct timestamps.
	is.True(a.CreatedAt.Equal(b.CreatedAt))
	is.True(a.UpdatedAt.Equal(b.UpdatedAt))

	// Overwrite to be able to compare them.
	b.CreatedAt = a.CreatedAt
	b.UpdatedAt = a.UpdatedAt

	// Assert that they are equal.
	is.Equal(a, b)
}
