package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/laundry-service/internal/session"
	"github.com/vasiliy-maslov/laundry-service/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// SignInResult is what a successful sign-up or sign-in hands back to the client.
type SignInResult struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
	User      *User  `json:"user"`
}

type Service interface {
	SignUp(ctx context.Context, input SignUpInput) (*SignInResult, error)
	SignIn(ctx context.Context, email, password string) (*SignInResult, error)
	Verify(ctx context.Context, token string) (session.Session, error)
	Profile(ctx context.Context, sess session.Session) (*User, error)
	UpdateProfile(ctx context.Context, sess session.Session, update ProfileUpdate) (*User, error)
	UploadAvatar(ctx context.Context, sess session.Session, r io.Reader) (*User, error)
}

type service struct {
	repo     Repository
	tokens   *Tokens
	blobs    storage.BlobStore
	validate *validator.Validate
}

func NewService(repo Repository, tokens *Tokens, blobs storage.BlobStore) Service {
	return &service{
		repo:     repo,
		tokens:   tokens,
		blobs:    blobs,
		validate: validator.New(),
	}
}

func (s *service) checkEmail(email string) error {
	if err := s.validate.Var(email, "required,email"); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

func (s *service) SignUp(ctx context.Context, input SignUpInput) (*SignInResult, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)

	if input.Name == "" || input.Email == "" || input.Password == "" {
		return nil, ErrMissingFields
	}
	if err := s.checkEmail(input.Email); err != nil {
		return nil, err
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to hash password")
		return nil, fmt.Errorf("service: failed to hash password: %w", err)
	}

	u := &User{
		Name:         input.Name,
		Email:        strings.ToLower(input.Email),
		Phone:        input.Phone,
		PasswordHash: string(hash),
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, ErrEmailInUse) {
			log.Warn().Str("email", u.Email).Msg("service: sign up with registered email")
			return nil, ErrEmailInUse
		}
		log.Error().Err(err).Msg("service: failed to create user in repository")
		return nil, fmt.Errorf("service: failed to create user: %w", err)
	}

	log.Info().Stringer("user_id", u.ID).Msg("service: shop account created")
	return s.issue(u)
}

func (s *service) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if err := s.checkEmail(email); err != nil {
		return nil, err
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredential
		}
		log.Error().Err(err).Msg("service: failed to fetch user by email")
		return nil, fmt.Errorf("service: failed to fetch user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		log.Warn().Stringer("user_id", u.ID).Msg("service: wrong password")
		return nil, ErrInvalidCredential
	}
	if u.Disabled {
		return nil, ErrUserDisabled
	}

	return s.issue(u)
}

func (s *service) issue(u *User) (*SignInResult, error) {
	token, expiresAt, err := s.tokens.Issue(u)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", u.ID).Msg("service: failed to issue token")
		return nil, fmt.Errorf("service: %w", err)
	}
	return &SignInResult{Token: token, ExpiresAt: expiresAt.Unix(), User: u}, nil
}

// Verify resolves a bearer token to a session. A token whose account has been
// disabled or removed since issue is refused.
func (s *service) Verify(ctx context.Context, token string) (session.Session, error) {
	sess, err := s.tokens.Parse(token)
	if err != nil {
		return session.Session{}, err
	}
	u, err := s.repo.GetUserByID(ctx, sess.OwnerID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return session.Session{}, ErrInvalidToken
		}
		return session.Session{}, fmt.Errorf("service: failed to load session user: %w", err)
	}
	if u.Disabled {
		return session.Session{}, ErrUserDisabled
	}
	sess.DisplayName = u.Name
	sess.Email = u.Email
	return sess, nil
}

func (s *service) Profile(ctx context.Context, sess session.Session) (*User, error) {
	u, err := s.repo.GetUserByID(ctx, sess.OwnerID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch profile: %w", err)
	}
	return u, nil
}

func (s *service) UpdateProfile(ctx context.Context, sess session.Session, update ProfileUpdate) (*User, error) {
	update.Name = strings.TrimSpace(update.Name)
	update.Email = strings.ToLower(strings.TrimSpace(update.Email))
	update.Phone = strings.TrimSpace(update.Phone)
	update.Address = strings.TrimSpace(update.Address)

	if update.Name == "" || update.Email == "" {
		return nil, ErrMissingFields
	}
	if err := s.checkEmail(update.Email); err != nil {
		return nil, err
	}

	u, err := s.repo.UpdateProfile(ctx, sess.OwnerID, update)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrEmailInUse) {
			return nil, err
		}
		log.Error().Err(err).Stringer("user_id", sess.OwnerID).Msg("service: failed to update profile")
		return nil, fmt.Errorf("service: failed to update profile: %w", err)
	}
	log.Info().Stringer("user_id", sess.OwnerID).Msg("service: profile updated")
	return u, nil
}

func (s *service) UploadAvatar(ctx context.Context, sess session.Session, r io.Reader) (*User, error) {
	current, err := s.Profile(ctx, sess)
	if err != nil {
		return nil, err
	}

	url, err := s.blobs.Put(ctx, "profile_photos/"+sess.OwnerID.String(), r)
	if err != nil {
		return nil, fmt.Errorf("service: failed to store avatar: %w", err)
	}
	if err := s.repo.UpdateAvatar(ctx, sess.OwnerID, url); err != nil {
		return nil, fmt.Errorf("service: failed to save avatar url: %w", err)
	}

	if current.AvatarURL != "" && current.AvatarURL != url {
		if err := s.blobs.Delete(ctx, current.AvatarURL); err != nil {
			log.Warn().Err(err).Str("url", current.AvatarURL).Msg("service: failed to delete previous avatar")
		}
	}

	current.AvatarURL = url
	return current, nil
}
