package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/krishkalaria12/snap-social/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sessions tracks a per-user session generation. Ending the sessions of a
// user bumps it, which invalidates every token minted under the old value.
type Sessions struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSessions(db *gorm.DB) *Sessions {
	return &Sessions{db: db, now: time.Now}
}

// Generation returns the current generation of userID, 0 if its sessions
// were never ended.
func (s *Sessions) Generation(ctx context.Context, userID uint) (int64, error) {
	var rev models.SessionRevocation
	err := s.db.WithContext(ctx).First(&rev, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("read session generation: %w", err)
	}
	return rev.Generation, nil
}

// End revokes every session of userID issued so far.
func (s *Sessions) End(ctx context.Context, userID uint) error {
	now := s.now().UTC()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.SessionRevocation{UserID: userID, RevokedAt: now}).Error
		if err != nil {
			return err
		}
		return tx.Model(&models.SessionRevocation{}).
			Where("user_id = ?", userID).
			Updates(map[string]interface{}{
				"generation": gorm.Expr("generation + 1"),
				"revoked_at": now,
			}).Error
	})
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}
