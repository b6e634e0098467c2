package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/kittipat-dev/unilib-api/internal/model"
	"github.com/kittipat-dev/unilib-api/internal/otpstore"
	"github.com/kittipat-dev/unilib-api/internal/repository"
	"github.com/kittipat-dev/unilib-api/shared/mailer"
	"github.com/kittipat-dev/unilib-api/shared/security"
)

const (
	otpTTL = 10 * time.Minute

	// otpResetWindow keeps a verified code alive for one subsequent
	// password-reset call even when the original window has lapsed.
	otpResetWindow = 5 * time.Minute
)

var (
	ErrOTPNotFound        = errors.New("otp not found or expired")
	ErrOTPExpired         = errors.New("otp has expired")
	ErrOTPMismatch        = errors.New("invalid otp")
	ErrOTPPurposeMismatch = errors.New("invalid otp purpose")
	ErrOTPNotUsable       = errors.New("this otp cannot be used for password reset")
	ErrInvalidPurpose     = errors.New("invalid purpose, must be either \"verification\" or \"password_reset\"")
)

// OTPIssue is the outcome of a successful OTP request. TestCode is populated
// only outside production so the flow is testable without a mail channel.
type OTPIssue struct {
	Purpose    model.OTPPurpose
	ExpiresAt  time.Time
	TestCode   string
	PreviewURL string
}

// OTPUsecase defines the one-time-passcode flows: identity verification and
// password reset over a single per-address code store.
type OTPUsecase interface {
	// Request generates and delivers a fresh code for the address,
	// overwriting any previous one regardless of purpose.
	Request(ctx context.Context, email string, purpose model.OTPPurpose) (*OTPIssue, error)

	// RequestPasswordReset is Request with the password_reset purpose, but
	// only for addresses that belong to an account.
	RequestPasswordReset(ctx context.Context, email string) (*OTPIssue, error)

	// Verify confirms a code without consuming it, extending its life by the
	// reset window. A verification-purpose code also flips the account's
	// email_verified flag.
	Verify(ctx context.Context, email, code string, purpose model.OTPPurpose) error

	// ResetPassword consumes a code and sets the new password. The code must
	// be verified, or have been issued for password reset.
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

type otpUsecase struct {
	store      otpstore.Store
	userRepo   repository.UserRepository
	notifier   mailer.Notifier
	production bool
	logger     *zerolog.Logger
	now        func() time.Time
}

// NewOTPUsecase creates the OTP manager.
func NewOTPUsecase(
	store otpstore.Store,
	userRepo repository.UserRepository,
	notifier mailer.Notifier,
	production bool,
	logger *zerolog.Logger,
) OTPUsecase {
	return &otpUsecase{
		store:      store,
		userRepo:   userRepo,
		notifier:   notifier,
		production: production,
		logger:     logger,
		now:        time.Now,
	}
}

func (u *otpUsecase) Request(
	ctx context.Context,
	email string,
	purpose model.OTPPurpose,
) (*OTPIssue, error) {
	if purpose == "" {
		purpose = model.OTPPurposeVerification
	}
	if !purpose.Valid() {
		return nil, ErrInvalidPurpose
	}

	email = NormalizeEmail(email)

	code, err := generateOTPCode()
	if err != nil {
		return nil, err
	}

	now := u.now()
	record := &model.OTPRecord{
		Code:      code,
		Purpose:   purpose,
		CreatedAt: now,
		ExpiresAt: now.Add(otpTTL),
	}

	if err := u.store.Set(ctx, email, record, otpTTL+otpResetWindow); err != nil {
		return nil, err
	}

	issue := &OTPIssue{
		Purpose:   purpose,
		ExpiresAt: record.ExpiresAt,
	}

	receipt, err := u.notifier.Send(ctx, otpEmail(email, code, purpose))
	if err != nil {
		// No other channel reveals the code in production, so delivery
		// failure is fatal there. Outside production the code is echoed in
		// the response and the flow proceeds.
		if u.production {
			return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
		}

		u.logger.Warn().Err(err).Msg("otp delivery failed, code remains usable")
	} else if receipt != nil {
		issue.PreviewURL = receipt.PreviewURL
	}

	if !u.production {
		issue.TestCode = code
	}

	return issue, nil
}

func (u *otpUsecase) RequestPasswordReset(ctx context.Context, email string) (*OTPIssue, error) {
	_, err := u.userRepo.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	return u.Request(ctx, email, model.OTPPurposePasswordReset)
}

func (u *otpUsecase) Verify(ctx context.Context, email, code string, purpose model.OTPPurpose) error {
	email = NormalizeEmail(email)

	record, err := u.checkCode(ctx, email, code, purpose)
	if err != nil {
		return err
	}

	now := u.now()
	record.Verified = true
	record.VerifiedAt = &now

	// Extend rather than consume: the verified code stays valid long enough
	// for the client to submit the new password.
	if extended := now.Add(otpResetWindow); extended.After(record.ExpiresAt) {
		record.ExpiresAt = extended
	}

	if err := u.store.Set(ctx, email, record, record.ExpiresAt.Sub(now)); err != nil {
		return err
	}

	if record.Purpose == model.OTPPurposeVerification {
		if err := u.userRepo.SetEmailVerified(ctx, email); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return err
		}
	}

	return nil
}

func (u *otpUsecase) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	email = NormalizeEmail(email)

	// Re-run every check; a prior Verify call is not trusted.
	record, err := u.checkCode(ctx, email, code, "")
	if err != nil {
		return err
	}

	if !record.Verified && record.Purpose != model.OTPPurposePasswordReset {
		return ErrOTPNotUsable
	}

	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrUserNotFound
		}

		return err
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := u.userRepo.UpdatePassword(ctx, user.ID.Hex(), passwordHash); err != nil {
		return err
	}

	// True single use: the record is gone once the reset lands.
	return u.store.Delete(ctx, email)
}

// checkCode runs the shared existence, expiry, purpose, and match checks. An
// expired record is deleted as a side effect. Codes compare as exact strings.
func (u *otpUsecase) checkCode(
	ctx context.Context,
	email, code string,
	purpose model.OTPPurpose,
) (*model.OTPRecord, error) {
	record, err := u.store.Get(ctx, email)
	if err != nil {
		if errors.Is(err, otpstore.ErrNotFound) {
			return nil, ErrOTPNotFound
		}

		return nil, err
	}

	if u.now().After(record.ExpiresAt) {
		if err := u.store.Delete(ctx, email); err != nil {
			return nil, err
		}

		return nil, ErrOTPExpired
	}

	if purpose != "" && record.Purpose != purpose {
		return nil, ErrOTPPurposeMismatch
	}

	if record.Code != code {
		return nil, ErrOTPMismatch
	}

	return record, nil
}

// generateOTPCode returns a uniform random 6-digit code as a string, so a
// leading zero can never be truncated downstream.
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}

	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

func otpEmail(to, code string, purpose model.OTPPurpose) mailer.Email {
	subject := "Your Verification Code"
	purposeText := "verification"
	if purpose == model.OTPPurposePasswordReset {
		subject = "Password Reset Code"
		purposeText = "password reset"
	}

	return mailer.Email{
		To:      []string{to},
		Subject: subject,
		Body:    fmt.Sprintf("Your %s code is: %s. It will expire in 10 minutes.", purposeText, code),
		HTMLBody: fmt.Sprintf(`
			<p>Please use the code below to complete your %s request:</p>
			<h1 style="letter-spacing: 5px;">%s</h1>
			<p>This code will expire in 10 minutes.</p>
			<p>If you didn't request this code, please ignore this email.</p>
		`, purposeText, code),
	}
}
