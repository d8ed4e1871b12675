package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pesaflow/sacco-api/internal/models"
)

// GetUser retrieves a user by member number within the transaction.
func (t *Txn) GetUser(memberNumber string) (*models.User, error) {
	var user models.User
	if err := t.get(BucketUsers, memberNumber, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// PutUser stores a user keyed by its member number.
func (t *Txn) PutUser(user *models.User) error {
	return t.put(BucketUsers, user.MemberNumber, user)
}

// DeleteUser removes a user by member number.
func (t *Txn) DeleteUser(memberNumber string) error {
	return t.delete(BucketUsers, memberNumber)
}

// UserExists reports whether a user with the member number exists.
func (t *Txn) UserExists(memberNumber string) (bool, error) {
	return t.exists(BucketUsers, memberNumber)
}

// GetUser retrieves a user by member number.
func (s *Store) GetUser(memberNumber string) (*models.User, error) {
	var user *models.User
	err := s.View(func(t *Txn) error {
		var err error
		user, err = t.GetUser(memberNumber)
		return err
	})
	return user, err
}

// PutUser stores a user keyed by its member number.
func (s *Store) PutUser(user *models.User) error {
	return s.Update(func(t *Txn) error {
		return t.PutUser(user)
	})
}

// DeleteUser removes a user by member number.
func (s *Store) DeleteUser(memberNumber string) error {
	return s.Update(func(t *Txn) error {
		return t.DeleteUser(memberNumber)
	})
}

// UserFilter narrows ListUsers results. Zero values match everything.
type UserFilter struct {
	Search string // matches member number, name or email, case-insensitive
	Active *bool
}

func (f UserFilter) matches(user *models.User) bool {
	if f.Active != nil && user.IsActive != *f.Active {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		haystack := strings.ToLower(strings.Join([]string{
			user.MemberNumber, user.FirstName, user.LastName, user.Email,
		}, " "))
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

// ListUsers retrieves all users matching the filter.
func (s *Store) ListUsers(filter UserFilter) ([]*models.User, error) {
	var users []*models.User
	err := s.View(func(t *Txn) error {
		return t.forEach(BucketUsers, func(data []byte) error {
			var user models.User
			if err := json.Unmarshal(data, &user); err != nil {
				return fmt.Errorf("failed to unmarshal user: %w", err)
			}
			if filter.matches(&user) {
				users = append(users, &user)
			}
			return nil
		})
	})
	return users, err
}

// FindUserByEmail retrieves the user with the given email, or
// ErrNotFound. Emails are compared lowercase.
func (s *Store) FindUserByEmail(email string) (*models.User, error) {
	email = strings.ToLower(email)

	var found *models.User
	err := s.View(func(t *Txn) error {
		return t.forEach(BucketUsers, func(data []byte) error {
			if found != nil {
				return nil
			}
			var user models.User
			if err := json.Unmarshal(data, &user); err != nil {
				return fmt.Errorf("failed to unmarshal user: %w", err)
			}
			if user.Email != "" && strings.ToLower(user.Email) == email {
				found = &user
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}
