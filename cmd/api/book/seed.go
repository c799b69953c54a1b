package book

import "time"

var seededAt = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

/* Returns the catalog the store starts with. A fresh slice is built on every call. */
func SeedBooks() []Book {
	return []Book{
		{ID: "1", Title: "To Kill a Mockingbird", Author: "Harper Lee", Genre: "Fiction", PublicationYear: 1960, Availability: true, CreatedAt: seededAt, UpdatedAt: seededAt},
		{ID: "2", Title: "1984", Author: "George Orwell", Genre: "Dystopian Fiction", PublicationYear: 1949, Availability: false, CreatedAt: seededAt, UpdatedAt: seededAt},
		{ID: "3", Title: "Pride and Prejudice", Author: "Jane Austen", Genre: "Romance", PublicationYear: 1813, Availability: true, CreatedAt: seededAt, UpdatedAt: seededAt},
		{ID: "4", Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", Genre: "Fiction", PublicationYear: 1925, Availability: true, CreatedAt: seededAt, UpdatedAt: seededAt},
	}
}
