package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/krishkalaria12/snap-social/common"
	"github.com/krishkalaria12/snap-social/models"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor for stored passwords.
const PasswordCost = 10

// UserStore is the part of the user repository the credential store needs.
type UserStore interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id uint, hash string) error
}

// Credentials hashes, verifies and persists user passwords.
type Credentials struct {
	users UserStore
	cost  int
	// compared against when the email is unknown so both paths cost a hash
	dummy []byte
}

func NewCredentials(users UserStore) *Credentials {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("snap-social"), PasswordCost)
	return &Credentials{users: users, cost: PasswordCost, dummy: dummy}
}

func (c *Credentials) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	return string(hashed), err
}

// UpdatePassword hashes password and stores it for userID.
func (c *Credentials) UpdatePassword(ctx context.Context, userID uint, password string) error {
	hash, err := c.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w: %v", common.ErrInternal, err)
	}

	if err := c.users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		return fmt.Errorf("store password: %w: %v", common.ErrInternal, err)
	}
	return nil
}

// Verify returns the user owning email when password matches.
func (c *Credentials) Verify(ctx context.Context, email, password string) (*models.User, error) {
	user, err := c.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(c.dummy, []byte(password))
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
	}

	if !checkPasswordHash(password, user.Password) {
		return nil, common.ErrUnauthorized
	}
	return user, nil
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
