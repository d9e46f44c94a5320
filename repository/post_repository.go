package repository

import (
	"context"

	"github.com/krishkalaria12/snap-social/common"
	"github.com/krishkalaria12/snap-social/models"
	"gorm.io/gorm"
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, p *models.Post) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return translate("create post", r.db.WithContext(ctx).Create(p).Error)
}

func (r *PostRepository) FindByID(ctx context.Context, id uint) (*models.Post, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var p models.Post
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translate("find post", err)
	}
	return &p, nil
}

// ListByUser returns the posts owned by userID, oldest first.
func (r *PostRepository) ListByUser(ctx context.Context, userID uint) ([]models.Post, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var posts []models.Post
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&posts).Error; err != nil {
		return nil, translate("list posts", err)
	}
	return posts, nil
}

// Delete removes the post together with its comments and likes.
func (r *PostRepository) Delete(ctx context.Context, id uint) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return common.ErrNotFound
		}
		return nil
	})
	return translate("delete post", err)
}
