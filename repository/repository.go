// Package repository persists users, posts and likes through gorm.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/krishkalaria12/snap-social/common"
	"gorm.io/gorm"
)

const queryTimeout = 3 * time.Second

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

// translate maps gorm errors onto the shared sentinels.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, common.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w: %w", op, common.ErrValidation, common.ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
