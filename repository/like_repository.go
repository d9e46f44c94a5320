package repository

import (
	"context"

	"github.com/krishkalaria12/snap-social/models"
	"gorm.io/gorm"
)

// LikeSummary is the (likeValue, postId) pair exposed for a user's likes.
type LikeSummary struct {
	LikeValue int  `json:"likeValue"`
	PostID    uint `json:"postId"`
}

type LikeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

func (r *LikeRepository) ListByUser(ctx context.Context, userID uint) ([]LikeSummary, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	likes := []LikeSummary{}
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Select("like_value", "post_id").
		Where("user_id = ?", userID).
		Order("id").
		Scan(&likes).Error
	if err != nil {
		return nil, translate("list likes", err)
	}
	return likes, nil
}
