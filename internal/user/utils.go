package user

import (
	"strings"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsEmailTaken reports whether another user than exceptID already uses email.
func (s *Service) IsEmailTaken(email, exceptID string) (bool, error) {
	users, err := s.dao.List(map[string]any{emailField: normalizeEmail(email)})
	if err != nil {
		return false, err
	}
	for _, u := range users {
		if u.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}
