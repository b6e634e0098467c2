package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittipat-dev/unilib-api/internal/model"
	"github.com/kittipat-dev/unilib-api/shared/mailer"
	"github.com/kittipat-dev/unilib-api/shared/security"
)

const testAppBaseURL = "http://localhost:5173"

func newResetUsecase(
	repo *fakeUserRepo,
	notifier mailer.Notifier,
	scope ResetScope,
	production bool,
) *passwordResetUsecase {
	logger := zerolog.Nop()
	uc := NewPasswordResetUsecase(repo, notifier, scope, testAppBaseURL, production, &logger)
	return uc.(*passwordResetUsecase)
}

func TestResetRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newFakeUserRepo()
	sandbox := mailer.NewSandbox("noreply@unilib.local")
	uc := newResetUsecase(repo, sandbox, StandardResetScope, false)

	seedUser(t, repo, "student@uni.ac.th", "old-password", model.RoleStudent)

	issue, err := uc.RequestReset(ctx, "student@uni.ac.th")
	require.NoError(t, err)
	assert.Len(t, issue.Token, 40)
	assert.Equal(t, testAppBaseURL+"/resetpassword/"+issue.Token, issue.ResetURL)
	assert.NotEmpty(t, issue.PreviewURL)

	// Notification went out with the reset link.
	msg, ok := sandbox.Last()
	require.True(t, ok)
	assert.Equal(t, []string{"student@uni.ac.th"}, msg.Email.To)
	assert.Contains(t, msg.Email.Body, issue.ResetURL)

	// Only the hash is persisted.
	stored, err := repo.GetUserByEmail(ctx, "student@uni.ac.th")
	require.NoError(t, err)
	require.NotNil(t, stored.ResetTokenHash)
	assert.Equal(t, security.HashToken(issue.Token), *stored.ResetTokenHash)

	email, err := uc.VerifyToken(ctx, issue.Token)
	require.NoError(t, err)
	assert.Equal(t, "student@uni.ac.th", email)

	require.NoError(t, uc.ResetPassword(ctx, issue.Token, "brand-new-pass"))

	stored, err = repo.GetUserByEmail(ctx, "student@uni.ac.th")
	require.NoError(t, err)
	assert.Nil(t, stored.ResetTokenHash)
	assert.Nil(t, stored.ResetTokenExpiresAt)

	ok, err = security.VerifyPassword("brand-new-pass", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResetSingleUse(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newFakeUserRepo()
	uc := newResetUsecase(repo, mailer.NewSandbox("noreply@unilib.local"), StandardResetScope, false)

	seedUser(t, repo, "student@uni.ac.th", "old-password", model.RoleStudent)

	issue, err := uc.RequestReset(ctx, "student@uni.ac.th")
	require.NoError(t, err)

	require.NoError(t, uc.ResetPassword(ctx, issue.Token, "first-new-pass"))

	// A second submission of the same token finds nothing.
	err = uc.ResetPassword(ctx, issue.Token, "second-new-pass")
	assert.ErrorIs(t, err, ErrTokenInvalidOrExpired)

	// The first reset stuck.
	stored, err := repo.GetUserByEmail(ctx, "student@uni.ac.th")
	require.NoError(t, err)
	ok, err := security.VerifyPassword("first-new-pass", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResetScopeIsolation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newFakeUserRepo()
	sandbox := mailer.NewSandbox("noreply@unilib.local")
	standard := newResetUsecase(repo, sandbox, StandardResetScope, false)
	admin := newResetUsecase(repo, sandbox, AdminResetScope, false)

	seedUser(t, repo, "student@uni.ac.th", "old-password", model.RoleStudent)
	seedUser(t, repo, "admin@uni.ac.th", "old-password", model.RoleAdmin)

	// An admin address is invisible to the standard flow and vice versa.
	_, err := standard.RequestReset(ctx, "admin@uni.ac.th")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = admin.RequestReset(ctx, "student@uni.ac.th")
	assert.ErrorIs(t, err, ErrUserNotFound)

	// A token issued under one scope never validates under the other.
	studentIssue, err := standard.RequestReset(ctx, "student@uni.ac.th")
	require.NoError(t, err)

	_, err = admin.VerifyToken(ctx, studentIssue.Token)
	assert.ErrorIs(t, err, ErrTokenInvalidOrExpired)

	err = admin.ResetPassword(ctx, studentIssue.Token, "hijacked-pass")
	assert.ErrorIs(t, err, ErrTokenInvalidOrExpired)

	// The standard scope still honors it.
	_, err = standard.VerifyToken(ctx, studentIssue.Token)
	require.NoError(t, err)

	adminIssue, err := admin.RequestReset(ctx, "admin@uni.ac.th")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(adminIssue.ResetURL, testAppBaseURL+"/admin-reset-password/"))
}

func TestResetVerifyDoesNotConsume(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newFakeUserRepo()
	uc := newResetUsecase(repo, mailer.NewSandbox("noreply@unilib.local"), StandardResetScope, false)

	seedUser(t, repo, "student@uni.ac.th", "old-password", model.RoleStudent)

	issue, err := uc.RequestReset(ctx, "student@uni.ac.th")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := uc.VerifyToken(ctx, issue.Token)
		require.NoError(t, err)
	}

	require.NoError(t, uc.ResetPassword(ctx, issue.Token, "brand-new-pass"))
}

func TestResetTokenExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newFakeUserRepo()
	uc := newResetUsecase(repo, mailer.NewSandbox("noreply@unilib.local"), StandardResetScope, false)

	seedUser(t, repo, "student@uni.ac.th", "old-password", model.RoleStudent)

	issue, err := uc.RequestReset(ctx, "student@uni.ac.th")
	require.NoError(t, err)

	// Just inside the window the token still resolves.
	uc.now = func() time.Time { return issue.ExpiresAt.Add(-time.Second) }
	_, err = uc.VerifyToken(ctx, issue.Token)
	require.NoError(t, err)

	// Past the window the token behaves like an unknown one.
	uc.now = func() time.Time { return issue.ExpiresAt.Add(time.Second) }
	_, err = uc.VerifyToken(ctx, issue.Token)
	assert.ErrorIs(t, err, ErrTokenInvalidOrExpired)

	err = uc.ResetPassword(ctx, issue.Token, "brand-new-pass")
	assert.ErrorIs(t, err, ErrTokenInvalidOrExpired)
}

func TestResetShortPassword(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newFakeUserRepo()
	uc := newResetUsecase(repo, mailer.NewSandbox("noreply@unilib.local"), StandardResetScope, false)

	seedUser(t, repo, "student@uni.ac.th", "old-password", model.RoleStudent)

	issue, err := uc.RequestReset(ctx, "student@uni.ac.th")
	require.NoError(t, err)

	err = uc.ResetPassword(ctx, issue.Token, "short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	// Rejected attempt did not burn the token.
	require.NoError(t, uc.ResetPassword(ctx, issue.Token, "long-enough-pass"))
}

func TestResetReissueOverwrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newFakeUserRepo()
	uc := newResetUsecase(repo, mailer.NewSandbox("noreply@unilib.local"), StandardResetScope, false)

	seedUser(t, repo, "student@uni.ac.th", "old-password", model.RoleStudent)

	first, err := uc.RequestReset(ctx, "student@uni.ac.th")
	require.NoError(t, err)

	second, err := uc.RequestReset(ctx, "student@uni.ac.th")
	require.NoError(t, err)
	require.NotEqual(t, first.Token, second.Token)

	_, err = uc.VerifyToken(ctx, first.Token)
	assert.ErrorIs(t, err, ErrTokenInvalidOrExpired)

	_, err = uc.VerifyToken(ctx, second.Token)
	require.NoError(t, err)
}

func TestResetDeliveryFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	// In production the email is the only channel, so the request fails.
	repo := newFakeUserRepo()
	uc := newResetUsecase(repo, failingNotifier{}, StandardResetScope, true)
	seedUser(t, repo, "student@uni.ac.th", "old-password", model.RoleStudent)

	_, err := uc.RequestReset(ctx, "student@uni.ac.th")
	assert.ErrorIs(t, err, ErrDeliveryFailed)

	// Outside production the token is echoed and the flow stays usable.
	repo = newFakeUserRepo()
	uc = newResetUsecase(repo, failingNotifier{}, StandardResetScope, false)
	seedUser(t, repo, "student@uni.ac.th", "old-password", model.RoleStudent)

	issue, err := uc.RequestReset(ctx, "student@uni.ac.th")
	require.NoError(t, err)
	assert.NotEmpty(t, issue.Token)
	assert.Empty(t, issue.PreviewURL)
}
