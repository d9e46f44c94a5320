package repository

import (
	"context"
	"strings"

	"github.com/krishkalaria12/snap-social/common"
	"github.com/krishkalaria12/snap-social/models"
	"gorm.io/gorm"
)

// UserFields is a partial profile update; nil fields are left untouched.
type UserFields struct {
	Nickname   *string
	Firstname  *string
	Lastname   *string
	Email      *string
	PictureURL *string
}

func (f UserFields) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if f.Nickname != nil {
		cols["nickname"] = *f.Nickname
	}
	if f.Firstname != nil {
		cols["firstname"] = *f.Firstname
	}
	if f.Lastname != nil {
		cols["lastname"] = *f.Lastname
	}
	if f.Email != nil {
		cols["email"] = strings.TrimSpace(*f.Email)
	}
	if f.PictureURL != nil {
		cols["picture_url"] = *f.PictureURL
	}
	return cols
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return translate("create user", r.db.WithContext(ctx).Create(u).Error)
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate("find user", err)
	}
	return &u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var u models.User
	if err := r.db.WithContext(ctx).Where("email = ?", strings.TrimSpace(email)).First(&u).Error; err != nil {
		return nil, translate("find user by email", err)
	}
	return &u, nil
}

// Update writes the set fields of f to user id.
func (r *UserRepository) Update(ctx context.Context, id uint, f UserFields) error {
	cols := f.columns()
	if len(cols) == 0 {
		_, err := r.FindByID(ctx, id)
		return err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return translate("update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("update user", common.ErrNotFound)
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password", hash)
	if res.Error != nil {
		return translate("update password", res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("update password", common.ErrNotFound)
	}
	return nil
}

// Delete removes the user with its posts, comments and likes in one
// transaction. Foreign keys cascade as well; the explicit deletes cover
// engines that do not enforce them.
func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		posts := func() *gorm.DB {
			return tx.Model(&models.Post{}).Select("id").Where("user_id = ?", id)
		}

		if err := tx.Where("user_id = ? OR post_id IN (?)", id, posts()).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? OR post_id IN (?)", id, posts()).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Post{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return common.ErrNotFound
		}
		return nil
	})
	return translate("delete user", err)
}
