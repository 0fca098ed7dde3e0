package book

import (
	"strings"

	"github.com/google/uuid"

	"bookstore/internal/apperror"
	"bookstore/internal/dao"
	"bookstore/internal/validation"
	"bookstore/package/client/jsondb"
)

const collectionPath = "/books"

type Service struct {
	dao   *dao.Collection[Book]
	newID func() string
}

func NewService(db *jsondb.DB) *Service {
	return &Service{
		dao:   dao.New[Book](db, collectionPath),
		newID: uuid.NewString,
	}
}

func (s *Service) List(filter map[string]any) ([]Book, error) {
	return s.dao.List(filter)
}

func (s *Service) Get(id string) (Book, error) {
	book, found, err := s.dao.GetByID(id)
	if err != nil {
		return Book{}, err
	}
	if !found {
		return Book{}, apperror.UnknownEntity("unknown book")
	}
	return book, nil
}

// Create stores input under a fresh id. Any id in input is ignored.
func (s *Service) Create(input Book) (Book, error) {
	if err := validation.Struct("book", input); err != nil {
		return Book{}, err
	}

	input.ID = s.newID()
	if input.Comments == nil {
		input.Comments = []Comment{}
	}
	return s.dao.Create(input)
}

func (s *Service) Update(patch Patch) (Book, error) {
	existing, err := s.Get(patch.ID)
	if err != nil {
		return Book{}, err
	}

	updated, found, err := s.dao.Update(patch.Apply(existing))
	if err != nil {
		return Book{}, err
	}
	if !found {
		return Book{}, apperror.UnknownEntity("unknown book")
	}
	return updated, nil
}

func (s *Service) Delete(id string) (string, error) {
	deleted, found, err := s.dao.Delete(id)
	if err != nil {
		return "", err
	}
	if !found {
		return "", apperror.UnknownEntity("unknown book")
	}
	return deleted, nil
}

// CreateComment appends a comment by userID to the book and stores the
// whole book again. userID is not checked against existing users.
func (s *Service) CreateComment(userID, bookID, message string) (Book, error) {
	existing, err := s.Get(bookID)
	if err != nil {
		return Book{}, err
	}
	if strings.TrimSpace(message) == "" {
		return Book{}, apperror.Validation("invalid comment: message is required")
	}

	existing.Comments = append(existing.Comments, Comment{
		ID:      s.newID(),
		UserID:  userID,
		Message: message,
	})

	updated, found, err := s.dao.Update(existing)
	if err != nil {
		return Book{}, err
	}
	if !found {
		return Book{}, apperror.UnknownEntity("unknown book")
	}
	return updated, nil
}
