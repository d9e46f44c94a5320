// Package services holds the account lifecycle and post logic. Services
// depend on small repository interfaces and never on the HTTP layer.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/krishkalaria12/snap-social/common"
	"github.com/krishkalaria12/snap-social/logging"
	"github.com/krishkalaria12/snap-social/media"
	"github.com/krishkalaria12/snap-social/models"
	"github.com/krishkalaria12/snap-social/repository"
)

const MinPasswordLength = 6

// CascadePolicy decides what DeleteAccount does when the user's posts
// cannot be listed.
type CascadePolicy int

const (
	// CascadeBestEffort still deletes the user and reports ErrBadGateway.
	CascadeBestEffort CascadePolicy = iota
	// CascadeStrict aborts the deletion.
	CascadeStrict
)

func ParseCascadePolicy(s string) (CascadePolicy, error) {
	switch s {
	case "", "best-effort":
		return CascadeBestEffort, nil
	case "strict":
		return CascadeStrict, nil
	default:
		return 0, fmt.Errorf("unknown cascade policy %q", s)
	}
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	Update(ctx context.Context, id uint, f repository.UserFields) error
	Delete(ctx context.Context, id uint) error
}

type PostRepository interface {
	Create(ctx context.Context, p *models.Post) error
	FindByID(ctx context.Context, id uint) (*models.Post, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Post, error)
	Delete(ctx context.Context, id uint) error
}

type LikeRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]repository.LikeSummary, error)
}

type CredentialStore interface {
	Hash(password string) (string, error)
	UpdatePassword(ctx context.Context, userID uint, password string) error
	Verify(ctx context.Context, email, password string) (*models.User, error)
}

// SessionEnder terminates every active session of a user.
type SessionEnder interface {
	End(ctx context.Context, userID uint) error
}

// Caller is the authenticated identity behind a request.
type Caller struct {
	UserID  uint
	IsAdmin bool
}

func (c Caller) canManage(userID uint) bool {
	return c.IsAdmin || c.UserID == userID
}

// Origin is the scheme and host used to build public asset URLs.
type Origin struct {
	Protocol string
	Host     string
}

type AccountService struct {
	users       UserRepository
	posts       PostRepository
	likes       LikeRepository
	credentials CredentialStore
	remover     media.AssetRemover
	sessions    SessionEnder
	policy      CascadePolicy
	log         logging.Logger
}

type AccountDeps struct {
	Users       UserRepository
	Posts       PostRepository
	Likes       LikeRepository
	Credentials CredentialStore
	Remover     media.AssetRemover
	Sessions    SessionEnder
	Policy      CascadePolicy
	Logger      logging.Logger
}

func NewAccountService(d AccountDeps) *AccountService {
	return &AccountService{
		users:       d.Users,
		posts:       d.Posts,
		likes:       d.Likes,
		credentials: d.Credentials,
		remover:     d.Remover,
		sessions:    d.Sessions,
		policy:      d.Policy,
		log:         d.Logger,
	}
}

func (s *AccountService) load(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", common.ErrLookup, err)
		}
		return nil, fmt.Errorf("%w: %w: %v", common.ErrLookup, common.ErrInternal, err)
	}
	return u, nil
}

// mutationErr keeps validation and not-found kinds and folds everything
// else into ErrInternal.
func mutationErr(op string, err error) error {
	if errors.Is(err, common.ErrValidation) || errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, common.ErrInternal, err)
}

type RegisterInput struct {
	Email     string
	Password  string
	Nickname  string
	Firstname string
	Lastname  string
}

// Register creates an account with the default picture.
func (s *AccountService) Register(ctx context.Context, in RegisterInput, origin Origin) (*models.User, error) {
	email := strings.TrimSpace(in.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", common.ErrValidation)
	}
	if len(in.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password shorter than %d characters", common.ErrValidation, MinPasswordLength)
	}

	hash, err := s.credentials.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w: %v", common.ErrInternal, err)
	}

	u := &models.User{
		Email:      email,
		Password:   hash,
		Nickname:   in.Nickname,
		Firstname:  in.Firstname,
		Lastname:   in.Lastname,
		PictureURL: media.DefaultURL(origin.Protocol, origin.Host),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, mutationErr("register", err)
	}

	s.log.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Login checks credentials and returns the matching user.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.User, error) {
	return s.credentials.Verify(ctx, email, password)
}

func (s *AccountService) GetSelf(ctx context.Context, sessionUserID uint) (*models.User, error) {
	return s.load(ctx, sessionUserID)
}

func (s *AccountService) GetOther(ctx context.Context, targetUserID uint) (*models.User, error) {
	return s.load(ctx, targetUserID)
}

func (s *AccountService) GetLikesOfSelf(ctx context.Context, sessionUserID uint) ([]repository.LikeSummary, error) {
	likes, err := s.likes.ListByUser(ctx, sessionUserID)
	if err != nil {
		return nil, fmt.Errorf("list likes: %w: %v", common.ErrInternal, err)
	}
	return likes, nil
}

func (s *AccountService) ChangePassword(ctx context.Context, caller Caller, targetUserID uint, password string) error {
	u, err := s.load(ctx, targetUserID)
	if err != nil {
		return err
	}
	if !caller.canManage(u.ID) {
		return common.ErrForbidden
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password shorter than %d characters", common.ErrValidation, MinPasswordLength)
	}

	if err := s.credentials.UpdatePassword(ctx, u.ID, password); err != nil {
		if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrInternal) {
			return fmt.Errorf("change password: %w", err)
		}
		return fmt.Errorf("change password: %w: %v", common.ErrInternal, err)
	}

	s.log.Info(ctx, "password changed", "user_id", u.ID)
	return nil
}

// ProfileUpdate carries the profile fields to write. When NewPicture holds
// the filename of a freshly stored upload it replaces Fields.PictureURL.
type ProfileUpdate struct {
	Fields     repository.UserFields
	NewPicture string
	Origin     Origin
}

// UpdateProfile reads the record of targetUserID but writes the merged
// fields to sessionUserID. The picture replaced is the one of the written
// record; it is removed only once the write succeeded.
func (s *AccountService) UpdateProfile(ctx context.Context, sessionUserID, targetUserID uint, upd ProfileUpdate) error {
	var newURL string
	if upd.NewPicture != "" {
		newURL = media.ProfileURL(upd.Origin.Protocol, upd.Origin.Host, upd.NewPicture)
	}

	err := s.updateProfile(ctx, sessionUserID, targetUserID, upd.Fields, newURL)
	if err != nil && newURL != "" {
		// nothing references the upload
		s.remover.Remove(ctx, newURL)
	}
	return err
}

func (s *AccountService) updateProfile(ctx context.Context, sessionUserID, targetUserID uint, fields repository.UserFields, newURL string) error {
	owner, err := s.load(ctx, targetUserID)
	if err != nil {
		return err
	}
	if newURL != "" && sessionUserID != targetUserID {
		if owner, err = s.users.FindByID(ctx, sessionUserID); err != nil {
			return mutationErr("update profile", err)
		}
	}

	if newURL != "" {
		fields.PictureURL = &newURL
	}
	if err := s.users.Update(ctx, sessionUserID, fields); err != nil {
		return mutationErr("update profile", err)
	}

	if newURL != "" && owner.PictureURL != newURL {
		s.remover.Remove(ctx, owner.PictureURL)
	}

	s.log.Info(ctx, "profile updated", "user_id", sessionUserID, "target_id", targetUserID)
	return nil
}

// RemoveProfileImage drops the custom picture and points back at the default.
func (s *AccountService) RemoveProfileImage(ctx context.Context, caller Caller, targetUserID uint, origin Origin) error {
	u, err := s.load(ctx, targetUserID)
	if err != nil {
		return err
	}
	if !caller.canManage(u.ID) {
		return common.ErrForbidden
	}

	s.remover.Remove(ctx, u.PictureURL)

	def := media.DefaultURL(origin.Protocol, origin.Host)
	if err := s.users.Update(ctx, u.ID, repository.UserFields{PictureURL: &def}); err != nil {
		return mutationErr("remove profile image", err)
	}
	return nil
}

// DeleteReport tells the caller how far DeleteAccount got.
type DeleteReport struct {
	UserDeleted  bool
	SessionEnded bool
	Removals     []media.Result
}

// DeleteAccount removes the user's media, the user row with its dependents,
// and ends the sessions of the caller and of the deleted user.
func (s *AccountService) DeleteAccount(ctx context.Context, caller Caller, targetUserID uint) (DeleteReport, error) {
	var report DeleteReport

	u, err := s.load(ctx, targetUserID)
	if err != nil {
		return report, err
	}
	if !caller.canManage(u.ID) {
		return report, common.ErrForbidden
	}

	report.Removals = append(report.Removals, s.remover.Remove(ctx, u.PictureURL))

	var enumErr error
	posts, err := s.posts.ListByUser(ctx, u.ID)
	if err != nil {
		enumErr = fmt.Errorf("list posts of user %d: %w: %v", u.ID, common.ErrBadGateway, err)
		if s.policy == CascadeStrict {
			return report, enumErr
		}
		s.log.Warn(ctx, "deleting user without post media cleanup", "user_id", u.ID, "error", err)
	}
	for _, p := range posts {
		if p.ImageURL != nil {
			report.Removals = append(report.Removals, s.remover.Remove(ctx, *p.ImageURL))
		}
	}

	if err := s.users.Delete(ctx, u.ID); err != nil {
		return report, errors.Join(enumErr, fmt.Errorf("delete user %d: %w: %v", u.ID, common.ErrInternal, err))
	}
	report.UserDeleted = true

	report.SessionEnded = true
	for _, id := range uniqueIDs(caller.UserID, u.ID) {
		if err := s.sessions.End(ctx, id); err != nil {
			report.SessionEnded = false
			s.log.Error(ctx, "failed to end session", "user_id", id, "error", err)
		}
	}

	s.log.Info(ctx, "user deleted", "user_id", u.ID, "posts", len(posts))
	return report, enumErr
}

func uniqueIDs(a, b uint) []uint {
	if a == b {
		return []uint{a}
	}
	return []uint{a, b}
}
