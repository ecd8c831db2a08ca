package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Users looks up assignees in the users table.
type Users struct {
	db *gorm.DB
}

// NewUsers creates a user directory backed by db.
func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// Lookup finds a live user by email, falling back to username.
// Empty inputs are ignored. Matching is case-insensitive.
func (u *Users) Lookup(ctx context.Context, email, username string) (uint, bool, error) {
	if email = strings.TrimSpace(email); email != "" {
		id, ok, err := u.find(ctx, "email", email)
		if err != nil || ok {
			return id, ok, err
		}
	}
	if username = strings.TrimSpace(username); username != "" {
		return u.find(ctx, "username", username)
	}
	return 0, false, nil
}

func (u *Users) find(ctx context.Context, column, value string) (uint, bool, error) {
	var user User
	err := u.db.WithContext(ctx).
		Where("LOWER("+column+") = ?", strings.ToLower(value)).
		Order("id").
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup user by %s: %w", column, err)
	}
	return user.ID, true, nil
}
