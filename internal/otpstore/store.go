// Package otpstore holds live one-time-code records keyed by email address.
//
// The default implementation is an in-process map; deployments that run more
// than one API process swap in the Redis implementation without touching
// caller code.
package otpstore

import (
	"context"
	"errors"
	"time"

	"github.com/kittipat-dev/unilib-api/internal/model"
)

// ErrNotFound indicates no record exists for the address.
var ErrNotFound = errors.New("otp record not found")

// Store is a key-value store of OTP records, one live record per address.
// Set overwrites any existing record for the address.
type Store interface {
	Get(ctx context.Context, address string) (*model.OTPRecord, error)
	Set(ctx context.Context, address string, record *model.OTPRecord, ttl time.Duration) error
	Delete(ctx context.Context, address string) error
}
