package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/krishkalaria12/snap-social/common"
	"github.com/krishkalaria12/snap-social/logging"
	"github.com/krishkalaria12/snap-social/media"
	"github.com/krishkalaria12/snap-social/models"
)

type PostService struct {
	posts   PostRepository
	remover media.AssetRemover
	log     logging.Logger
}

func NewPostService(posts PostRepository, remover media.AssetRemover, log logging.Logger) *PostService {
	return &PostService{posts: posts, remover: remover, log: log}
}

// NewPost is the input of Create. Image is the filename of a stored upload.
type NewPost struct {
	Content string
	Image   string
	Origin  Origin
}

func (s *PostService) Create(ctx context.Context, caller Caller, in NewPost) (*models.Post, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" && in.Image == "" {
		return nil, fmt.Errorf("%w: empty post", common.ErrValidation)
	}

	p := &models.Post{UserID: caller.UserID, Content: content}
	if in.Image != "" {
		url := media.ProfileURL(in.Origin.Protocol, in.Origin.Host, in.Image)
		p.ImageURL = &url
	}

	if err := s.posts.Create(ctx, p); err != nil {
		if p.ImageURL != nil {
			s.remover.Remove(ctx, *p.ImageURL)
		}
		return nil, mutationErr("create post", err)
	}
	return p, nil
}

// Delete removes a post owned by the caller (or any post for admins) and
// its image.
func (s *PostService) Delete(ctx context.Context, caller Caller, postID uint) error {
	p, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("%w: %w", common.ErrLookup, err)
		}
		return fmt.Errorf("%w: %w: %v", common.ErrLookup, common.ErrInternal, err)
	}
	if !caller.canManage(p.UserID) {
		return common.ErrForbidden
	}

	if err := s.posts.Delete(ctx, p.ID); err != nil {
		return mutationErr("delete post", err)
	}
	if p.ImageURL != nil {
		s.remover.Remove(ctx, *p.ImageURL)
	}

	s.log.Info(ctx, "post deleted", "post_id", p.ID, "user_id", caller.UserID)
	return nil
}
