package service

import (
	"errors"
	"fmt"
)

var (
	// ErrStorage marks a failed repository call on a write path.
	ErrStorage = errors.New("storage failure")

	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")

	// ErrCouponExists is returned when attempting to create a coupon whose code is taken
	ErrCouponExists = errors.New("coupon already exists")

	// ErrCouponNotFound is returned when a coupon cannot be found
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrAlreadyRedeemed is returned when a coupon was already redeemed on the same order
	ErrAlreadyRedeemed = errors.New("coupon already redeemed for order")
)

// storageErr wraps a repository failure so that errors.Is matches both
// ErrStorage and the underlying cause.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
