package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-pkgz/auth/v2/token"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/krishkalaria12/snap-social/common"
	"github.com/krishkalaria12/snap-social/models"
)

// CookieName carries the JWT for browser clients.
const CookieName = "JWT"

type Options struct {
	Secret         string
	Issuer         string
	TokenDuration  time.Duration
	CookieDuration time.Duration
}

// Service issues and validates session tokens.
type Service struct {
	tokens   *token.Service
	sessions *Sessions
	opts     Options
	now      func() time.Time
}

func NewService(opts Options, sessions *Sessions) *Service {
	if opts.TokenDuration == 0 {
		opts.TokenDuration = 24 * time.Hour
	}
	if opts.CookieDuration == 0 {
		opts.CookieDuration = 7 * 24 * time.Hour
	}

	tokens := token.NewService(token.Opts{
		SecretReader: token.SecretFunc(func(string) (string, error) {
			return opts.Secret, nil
		}),
		TokenDuration:  opts.TokenDuration,
		CookieDuration: opts.CookieDuration,
		Issuer:         opts.Issuer,
		JWTCookieName:  CookieName,
		DisableXSRF:    true,
	})

	return &Service{tokens: tokens, sessions: sessions, opts: opts, now: time.Now}
}

func (s *Service) CookieDuration() time.Duration { return s.opts.CookieDuration }

// Issue mints a token for u bound to its current session generation.
func (s *Service) Issue(ctx context.Context, u *models.User) (string, error) {
	gen, err := s.sessions.Generation(ctx, u.ID)
	if err != nil {
		return "", errors.Join(common.ErrInternal, err)
	}

	now := s.now()
	claims := token.Claims{
		User: &token.User{
			ID:    strconv.FormatUint(uint64(u.ID), 10),
			Name:  u.Nickname,
			Email: u.Email,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        strconv.FormatInt(gen, 10) + "." + uuid.NewString(),
			Issuer:    s.opts.Issuer,
			Audience:  []string{s.opts.Issuer},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.TokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)),
		},
	}
	if u.IsAdmin {
		claims.User.SetAdmin(true)
	}

	tokenStr, err := s.tokens.Token(claims)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenStr, nil
}

// Identity is the caller resolved from a valid token.
type Identity struct {
	UserID  uint
	IsAdmin bool
}

// Authenticate validates tokenStr and checks it against revocations.
func (s *Service) Authenticate(ctx context.Context, tokenStr string) (Identity, error) {
	claims, err := s.tokens.Parse(tokenStr)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
	}
	if claims.User == nil || claims.IssuedAt == nil {
		return Identity{}, fmt.Errorf("%w: incomplete claims", common.ErrUnauthorized)
	}

	id, err := strconv.ParseUint(claims.User.ID, 10, 32)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: bad user id %q", common.ErrUnauthorized, claims.User.ID)
	}

	gen, err := s.sessions.Generation(ctx, uint(id))
	if err != nil {
		return Identity{}, err
	}
	if tokenGeneration(claims.ID) != strconv.FormatInt(gen, 10) {
		return Identity{}, fmt.Errorf("%w: session ended", common.ErrUnauthorized)
	}

	return Identity{UserID: uint(id), IsAdmin: claims.User.IsAdmin()}, nil
}

// tokenGeneration extracts the generation prefix of a token id.
func tokenGeneration(jti string) string {
	gen, _, ok := strings.Cut(jti, ".")
	if !ok {
		return ""
	}
	return gen
}

// End terminates every active session of userID.
func (s *Service) End(ctx context.Context, userID uint) error {
	if err := s.sessions.End(ctx, userID); err != nil {
		return errors.Join(common.ErrInternal, err)
	}
	return nil
}
