package order

import "bookstore/internal/book"

// Order embeds copies of the books at the time it was placed; later edits
// to a book do not reach existing orders.
type Order struct {
	ID     string      `json:"id"`
	UserID string      `json:"userId" validate:"required"`
	Books  []book.Book `json:"books" validate:"required,min=1"`
}

func (o Order) GetID() string { return o.ID }

type Patch struct {
	ID     string       `json:"id,omitempty"`
	UserID *string      `json:"userId,omitempty"`
	Books  *[]book.Book `json:"books,omitempty"`
}

func (p Patch) Apply(o Order) Order {
	if p.UserID != nil {
		o.UserID = *p.UserID
	}
	if p.Books != nil {
		o.Books = append([]book.Book{}, (*p.Books)...)
	}
	return o
}

type DeleteResponse struct {
	ID string `json:"id"`
}
