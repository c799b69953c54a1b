package inmemory

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/book-catalog/cmd/api/book"
	"github.com/hashicorp/go-memdb"
)

const bookTable = "book"

type InMemoryStore struct {
	db  *memdb.MemDB
	exc *memdb.Txn //Only set on stores returned by BeginTx.
	seq *atomic.Uint64
}

/* Builds the store and fills it with the given books, keeping their order. */
func NewInMemoryStore(seed ...book.Book) (*InMemoryStore, error) {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			bookTable: {
				Name: bookTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					"title_author": { // Case-insensitive lookups for the title+author uniqueness rule.
						Name:   "title_author",
						Unique: false,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.StringFieldIndex{Field: "Title", Lowercase: true},
								&memdb.StringFieldIndex{Field: "Author", Lowercase: true},
							},
						},
					},
					"availability": {
						Name:    "availability",
						Unique:  false,
						Indexer: &memdb.BoolFieldIndex{Field: "Availability"},
					},
				},
			},
		},
	}

	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("validating in-memory schema: %w", err)
	}

	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize in-memory database: %w", err)
	}
	store := &InMemoryStore{db: db, seq: &atomic.Uint64{}}

	txn := db.Txn(true)
	defer txn.Abort()
	for _, b := range seed {
		if err := txn.Insert(bookTable, store.newRow(b)); err != nil {
			return nil, fmt.Errorf("seeding in-memory database: %w", err)
		}
	}
	txn.Commit()

	return store, nil
}

/* AdaptedBook is the row stored in memdb. Seq records insertion order. */
type AdaptedBook struct {
	ID              string
	Title           string
	Author          string
	Genre           string
	PublicationYear int
	Availability    bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Seq             uint64
}

func (store *InMemoryStore) newRow(b book.Book) AdaptedBook {
	return AdaptedBook{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		Genre:           b.Genre,
		PublicationYear: b.PublicationYear,
		Availability:    b.Availability,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
		Seq:             store.seq.Add(1),
	}
}

func adaptRowToBook(row AdaptedBook) book.Book {
	return book.Book{
		ID:              row.ID,
		Title:           row.Title,
		Author:          row.Author,
		Genre:           row.Genre,
		PublicationYear: row.PublicationYear,
		Availability:    row.Availability,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

/* Drains an iterator into books sorted by insertion order. */
func collectBooks(it memdb.ResultIterator) []book.Book {
	rows := []AdaptedBook{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		rows = append(rows, obj.(AdaptedBook))
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Seq < rows[j].Seq
	})

	books := make([]book.Book, 0, len(rows))
	for _, row := range rows {
		books = append(books, adaptRowToBook(row))
	}
	return books
}

/* Returns the transaction in use: the enclosing one on a tx-scoped store, or a new one. */
func (store *InMemoryStore) begin(write bool) (txn *memdb.Txn, insideTx bool) {
	if store.exc != nil {
		return store.exc, true
	}
	return store.db.Txn(write), false
}

func (store *InMemoryStore) ListBooks(ctx context.Context) ([]book.Book, error) {
	txn, insideTx := store.begin(false)
	if !insideTx {
		defer txn.Abort()
	}

	it, err := txn.Get(bookTable, "id")
	if err != nil {
		return nil, fmt.Errorf("listing books from db: %w", err)
	}
	return collectBooks(it), nil
}

func (store *InMemoryStore) ListBooksByAvailability(ctx context.Context, available bool) ([]book.Book, error) {
	txn, insideTx := store.begin(false)
	if !insideTx {
		defer txn.Abort()
	}

	it, err := txn.Get(bookTable, "availability", available)
	if err != nil {
		return nil, fmt.Errorf("listing books by availability from db: %w", err)
	}
	return collectBooks(it), nil
}

func (store *InMemoryStore) GetBookByID(ctx context.Context, id string) (book.Book, error) {
	txn, insideTx := store.begin(false)
	if !insideTx {
		defer txn.Abort()
	}

	raw, err := txn.First(bookTable, "id", id)
	if err != nil {
		return book.Book{}, fmt.Errorf("searching by ID: %w", err)
	}
	if raw == nil {
		return book.Book{}, fmt.Errorf("searching by ID: %w", book.ErrResponseBookNotFound)
	}

	return adaptRowToBook(raw.(AdaptedBook)), nil
}

/* Matches title and author ignoring case. */
func (store *InMemoryStore) FindByTitleAuthor(ctx context.Context, title, author string) ([]book.Book, error) {
	txn, insideTx := store.begin(false)
	if !insideTx {
		defer txn.Abort()
	}

	it, err := txn.Get(bookTable, "title_author", title, author)
	if err != nil {
		return nil, fmt.Errorf("searching by title and author: %w", err)
	}
	return collectBooks(it), nil
}

func (store *InMemoryStore) CreateBook(ctx context.Context, bookEntry book.Book) (book.Book, error) {
	txn, insideTx := store.begin(true)
	if !insideTx {
		defer txn.Abort()
	}

	row := store.newRow(bookEntry)
	if err := txn.Insert(bookTable, row); err != nil {
		return book.Book{}, fmt.Errorf("storing book on db: %w", err)
	}

	if !insideTx {
		txn.Commit()
	}
	return adaptRowToBook(row), nil
}

/* Replaces the stored book with the same ID. CreatedAt and insertion order are kept. */
func (store *InMemoryStore) UpdateBook(ctx context.Context, bookEntry book.Book) (book.Book, error) {
	txn, insideTx := store.begin(true)
	if !insideTx {
		defer txn.Abort()
	}

	raw, err := txn.First(bookTable, "id", bookEntry.ID)
	if err != nil {
		return book.Book{}, fmt.Errorf("updating book on db: %w", err)
	}
	if raw == nil {
		return book.Book{}, fmt.Errorf("updating book on db: %w", book.ErrResponseBookNotFound)
	}

	updatedBook := raw.(AdaptedBook)
	updatedBook.Title = bookEntry.Title
	updatedBook.Author = bookEntry.Author
	updatedBook.Genre = bookEntry.Genre
	updatedBook.PublicationYear = bookEntry.PublicationYear
	updatedBook.Availability = bookEntry.Availability
	//CreatedAt will not change
	updatedBook.UpdatedAt = bookEntry.UpdatedAt

	if err := txn.Insert(bookTable, updatedBook); err != nil {
		return book.Book{}, fmt.Errorf("updating book on db: %w", err)
	}

	if !insideTx {
		txn.Commit()
	}
	return adaptRowToBook(updatedBook), nil
}

/* Removes the book and returns it as it was stored. */
func (store *InMemoryStore) DeleteBook(ctx context.Context, id string) (book.Book, error) {
	txn, insideTx := store.begin(true)
	if !insideTx {
		defer txn.Abort()
	}

	raw, err := txn.First(bookTable, "id", id)
	if err != nil {
		return book.Book{}, fmt.Errorf("deleting book from db: %w", err)
	}
	if raw == nil {
		return book.Book{}, fmt.Errorf("deleting book from db: %w", book.ErrResponseBookNotFound)
	}

	if err := txn.Delete(bookTable, raw); err != nil {
		return book.Book{}, fmt.Errorf("deleting book from db: %w", err)
	}

	if !insideTx {
		txn.Commit()
	}
	return adaptRowToBook(raw.(AdaptedBook)), nil
}

// -- Transactions --

/*
Opens a transaction and returns a store bound to it. Write transactions are serialized by memdb,
so everything done through the returned store is isolated from other writers until Commit.
*/
func (store *InMemoryStore) BeginTx(ctx context.Context, opts *sql.TxOptions) (book.Repository, driver.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("beginning transaction: %w", err)
	}

	write := opts == nil || !opts.ReadOnly
	txn := store.db.Txn(write)
	if txn == nil {
		return nil, nil, fmt.Errorf("failed to create transaction")
	}

	txStore := &InMemoryStore{
		db:  store.db,
		exc: txn,
		seq: store.seq,
	}
	return txStore, &TxWrapper{txn: txn}, nil
}

type TxWrapper struct {
	txn *memdb.Txn
}

func (tx *TxWrapper) Commit() error {
	tx.txn.Commit()
	return nil
}

/* Safe to call after Commit, it does nothing then. */
func (tx *TxWrapper) Rollback() error {
	tx.txn.Abort()
	return nil
}
