package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/kittipat-dev/unilib-api/internal/model"
	"github.com/kittipat-dev/unilib-api/internal/repository"
	"github.com/kittipat-dev/unilib-api/shared/mailer"
	"github.com/kittipat-dev/unilib-api/shared/security"
)

const resetTokenTTL = 30 * time.Minute

var (
	ErrTokenInvalidOrExpired = errors.New("password reset token is invalid or has expired")
	ErrDeliveryFailed        = errors.New("failed to deliver recovery notification")
)

// ResetScope is the role predicate a recovery token variant resolves against.
// The standard and admin scopes are disjoint token spaces: a token issued
// under one never validates under the other, indistinguishably from no match.
type ResetScope struct {
	Name  string
	Roles []model.Role
	Path  string
}

var (
	// StandardResetScope covers students and teachers.
	StandardResetScope = ResetScope{
		Name:  "standard",
		Roles: model.StandardRoles,
		Path:  "/resetpassword/",
	}

	// AdminResetScope covers admins only.
	AdminResetScope = ResetScope{
		Name:  "admin",
		Roles: model.AdminRoles,
		Path:  "/admin-reset-password/",
	}
)

// ResetIssue is the outcome of a successful RequestReset. Token holds the
// plaintext recovery token; handlers must echo it only outside production.
type ResetIssue struct {
	Token      string
	ResetURL   string
	ExpiresAt  time.Time
	PreviewURL string
}

// PasswordResetUsecase defines the business logic for one recovery token
// scope. Two instances exist, one per scope.
type PasswordResetUsecase interface {
	// RequestReset issues a recovery token for a user in scope.
	RequestReset(ctx context.Context, email string) (*ResetIssue, error)

	// VerifyToken checks a token without consuming it and returns the
	// associated email.
	VerifyToken(ctx context.Context, token string) (string, error)

	// ResetPassword consumes a token and sets the new password. Exactly one
	// consume per token can succeed.
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type passwordResetUsecase struct {
	userRepo   repository.UserRepository
	notifier   mailer.Notifier
	scope      ResetScope
	appBaseURL string
	production bool
	logger     *zerolog.Logger
	now        func() time.Time
}

// NewPasswordResetUsecase creates a recovery token manager for one scope.
func NewPasswordResetUsecase(
	userRepo repository.UserRepository,
	notifier mailer.Notifier,
	scope ResetScope,
	appBaseURL string,
	production bool,
	logger *zerolog.Logger,
) PasswordResetUsecase {
	return &passwordResetUsecase{
		userRepo:   userRepo,
		notifier:   notifier,
		scope:      scope,
		appBaseURL: appBaseURL,
		production: production,
		logger:     logger,
		now:        time.Now,
	}
}

func (u *passwordResetUsecase) RequestReset(ctx context.Context, email string) (*ResetIssue, error) {
	user, err := u.userRepo.GetUserByEmailAndRoles(ctx, NormalizeEmail(email), u.scope.Roles)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	token, err := generateResetToken()
	if err != nil {
		return nil, err
	}

	expiresAt := u.now().Add(resetTokenTTL)
	if err := u.userRepo.SetResetToken(ctx, user.ID.Hex(), security.HashToken(token), expiresAt); err != nil {
		return nil, err
	}

	issue := &ResetIssue{
		Token:     token,
		ResetURL:  u.appBaseURL + u.scope.Path + token,
		ExpiresAt: expiresAt,
	}

	receipt, err := u.notifier.Send(ctx, mailer.Email{
		To:       []string{user.Email},
		Subject:  "Password Reset Request",
		Body:     fmt.Sprintf("Reset your password within 30 minutes: %s", issue.ResetURL),
		HTMLBody: resetEmailHTML(issue.ResetURL),
	})
	if err != nil {
		// In production the email is the only channel carrying the token, so
		// delivery failure must surface. Elsewhere the token is echoed in the
		// response and the flow stays usable without SMTP.
		if u.production {
			return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
		}

		u.logger.Warn().Err(err).Str("scope", u.scope.Name).Msg("reset notification delivery failed")
	} else if receipt != nil {
		issue.PreviewURL = receipt.PreviewURL
	}

	return issue, nil
}

func (u *passwordResetUsecase) VerifyToken(ctx context.Context, token string) (string, error) {
	user, err := u.userRepo.GetUserByResetToken(ctx, security.HashToken(token), u.scope.Roles, u.now())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrTokenInvalidOrExpired
		}

		return "", err
	}

	return user.Email, nil
}

func (u *passwordResetUsecase) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	// The lookup and the clear of both reset fields are one atomic document
	// update filtered on the token hash; a second submission of the same
	// token finds no matching document.
	_, err = u.userRepo.ConsumePasswordReset(
		ctx,
		security.HashToken(token),
		u.scope.Roles,
		u.now(),
		passwordHash,
	)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrTokenInvalidOrExpired
		}

		return err
	}

	return nil
}

// generateResetToken returns a fresh high-entropy opaque token. Only its
// hash is ever persisted.
func generateResetToken() (string, error) {
	bytes := make([]byte, 20)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func resetEmailHTML(resetURL string) string {
	return fmt.Sprintf(`
		<p>Hi,</p>
		<p>We received a request to reset the password for your account.</p>
		<p>If you made this request, please click the link below to create a new password:</p>

		<p><a href="%s">%s</a></p>

		<p>This link will expire in 30 minutes for your security.</p>
		<p>If you did not request a password reset, you can safely ignore this email.</p>

		<p>Thank you,</p>
		<p>University Library Team</p>
	`, resetURL, resetURL)
}
