package user

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"bookstore/internal/apperror"
	"bookstore/internal/auth"
	"bookstore/internal/dao"
	"bookstore/internal/validation"
	"bookstore/package/client/jsondb"
)

const (
	collectionPath    = "/users"
	emailField        = "email"
	passwordHashField = "passwordHash"
)

type Service struct {
	dao      *dao.Collection[User]
	newID    func() string
	hashCost int
}

func NewService(db *jsondb.DB) *Service {
	return &Service{
		dao:      dao.New[User](db, collectionPath),
		newID:    uuid.NewString,
		hashCost: bcrypt.DefaultCost,
	}
}

// List ignores filters on the password hash.
func (s *Service) List(filter map[string]any) ([]User, error) {
	delete(filter, passwordHashField)
	return s.dao.List(filter)
}

func (s *Service) Get(id string) (User, error) {
	u, found, err := s.dao.GetByID(id)
	if err != nil {
		return User{}, err
	}
	if !found {
		return User{}, apperror.UnknownEntity("unknown user")
	}
	return u, nil
}

// CurrentRole is the stored role of the user with id.
func (s *Service) CurrentRole(id string) (string, bool, error) {
	u, found, err := s.dao.GetByID(id)
	if err != nil || !found {
		return "", false, err
	}
	return u.Role, true, nil
}

func (s *Service) GetByEmail(email string) (User, error) {
	users, err := s.dao.List(map[string]any{emailField: normalizeEmail(email)})
	if err != nil {
		return User{}, err
	}
	if len(users) == 0 {
		return User{}, apperror.UnknownEntity("unknown user")
	}
	return users[0], nil
}

// Create registers a user. The role defaults to user and the password is
// stored as a bcrypt hash.
func (s *Service) Create(req CreateRequest) (User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validation.Struct("user", req); err != nil {
		return User{}, err
	}

	taken, err := s.IsEmailTaken(req.Email, "")
	if err != nil {
		return User{}, err
	}
	if taken {
		return User{}, apperror.Validation("email already taken")
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return User{}, err
	}

	role := req.Role
	if role == "" {
		role = auth.RoleUser
	}

	return s.dao.Create(User{
		ID:           s.newID(),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	})
}

func (s *Service) Update(patch Patch) (User, error) {
	existing, err := s.Get(patch.ID)
	if err != nil {
		return User{}, err
	}
	if patch.Email != nil {
		email := normalizeEmail(*patch.Email)
		patch.Email = &email
	}
	if err := validation.Struct("user", patch); err != nil {
		return User{}, err
	}

	updated := existing
	if patch.Email != nil {
		taken, err := s.IsEmailTaken(*patch.Email, existing.ID)
		if err != nil {
			return User{}, err
		}
		if taken {
			return User{}, apperror.Validation("email already taken")
		}
		updated.Email = *patch.Email
	}
	if patch.Password != nil {
		if updated.PasswordHash, err = s.hash(*patch.Password); err != nil {
			return User{}, err
		}
	}
	if patch.Role != nil {
		updated.Role = *patch.Role
	}

	stored, found, err := s.dao.Update(updated)
	if err != nil {
		return User{}, err
	}
	if !found {
		return User{}, apperror.UnknownEntity("unknown user")
	}
	return stored, nil
}

func (s *Service) Delete(id string) (string, error) {
	deleted, found, err := s.dao.Delete(id)
	if err != nil {
		return "", err
	}
	if !found {
		return "", apperror.UnknownEntity("unknown user")
	}
	return deleted, nil
}

// DeleteAsAdmin refuses to let an administrator delete their own account.
func (s *Service) DeleteAsAdmin(userID, callerID string) (string, error) {
	if userID == callerID {
		return "", apperror.Generic("user cannot remove himself")
	}
	return s.Delete(userID)
}

// Login returns the user owning email when password matches. Unknown emails
// and wrong passwords are both reported as an unknown user.
func (s *Service) Login(email, password string) (User, error) {
	u, err := s.GetByEmail(email)
	if err != nil {
		return User{}, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return User{}, apperror.UnknownEntity("unknown user")
	}
	if err != nil {
		return User{}, fmt.Errorf("compare password: %w", err)
	}
	return u, nil
}

func (s *Service) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", apperror.Wrap(apperror.KindValidation, err, "invalid password")
	}
	return string(h), nil
}
