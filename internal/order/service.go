package order

import (
	"github.com/google/uuid"

	"bookstore/internal/apperror"
	"bookstore/internal/dao"
	"bookstore/internal/validation"
	"bookstore/package/client/jsondb"
)

const (
	collectionPath = "/orders"
	userIDField    = "userId"
)

type Service struct {
	dao   *dao.Collection[Order]
	newID func() string
}

func NewService(db *jsondb.DB) *Service {
	return &Service{
		dao:   dao.New[Order](db, collectionPath),
		newID: uuid.NewString,
	}
}

func (s *Service) List(filter map[string]any) ([]Order, error) {
	return s.dao.List(filter)
}

// ListForUser is List restricted to the orders placed by userID.
func (s *Service) ListForUser(userID string, filter map[string]any) ([]Order, error) {
	scoped := make(map[string]any, len(filter)+1)
	for k, v := range filter {
		scoped[k] = v
	}
	scoped[userIDField] = userID
	return s.dao.List(scoped)
}

func (s *Service) Get(id string) (Order, error) {
	order, found, err := s.dao.GetByID(id)
	if err != nil {
		return Order{}, err
	}
	if !found {
		return Order{}, apperror.UnknownEntity("unknown order")
	}
	return order, nil
}

// GetForUser reports orders of other users as unknown.
func (s *Service) GetForUser(id, userID string) (Order, error) {
	order, err := s.Get(id)
	if err != nil {
		return Order{}, err
	}
	if order.UserID != userID {
		return Order{}, apperror.UnknownEntity("unknown order")
	}
	return order, nil
}

func (s *Service) Create(input Order) (Order, error) {
	if err := validation.Struct("order", input); err != nil {
		return Order{}, err
	}

	input.ID = s.newID()
	return s.dao.Create(input)
}

func (s *Service) Update(patch Patch) (Order, error) {
	existing, err := s.Get(patch.ID)
	if err != nil {
		return Order{}, err
	}

	updated, found, err := s.dao.Update(patch.Apply(existing))
	if err != nil {
		return Order{}, err
	}
	if !found {
		return Order{}, apperror.UnknownEntity("unknown order")
	}
	return updated, nil
}

func (s *Service) Delete(id string) (string, error) {
	deleted, found, err := s.dao.Delete(id)
	if err != nil {
		return "", err
	}
	if !found {
		return "", apperror.UnknownEntity("unknown order")
	}
	return deleted, nil
}

// DeleteAsOwner deletes an order on behalf of callerID. An order id equal to
// the caller id is refused before anything is looked up; an order placed by
// someone else is reported as unknown.
func (s *Service) DeleteAsOwner(orderID, callerID string) (string, error) {
	if orderID == callerID {
		return "", apperror.Generic("order cannot remove itself")
	}
	if _, err := s.GetForUser(orderID, callerID); err != nil {
		return "", err
	}
	return s.Delete(orderID)
}
