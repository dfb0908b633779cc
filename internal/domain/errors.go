package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Not found.
var (
	ErrUserNotFound     = errors.New("User not found")
	ErrGroupNotFound    = errors.New("Group not found")
	ErrCategoryNotFound = errors.New("Category not found")
	ErrMediaNotFound    = errors.New("Media not found")
	ErrProductNotFound  = errors.New("Product not found")
	ErrSaleNotFound     = errors.New("Sale not found")
)

// Business-rule conflicts.
var (
	ErrUsernameTaken     = errors.New("Username already exists")
	ErrGroupNameTaken    = errors.New("Group name already exists")
	ErrGroupLevelTaken   = errors.New("Group level already exists")
	ErrCategoryExists    = errors.New("Category already exists")
	ErrCategoryInUse     = errors.New("Cannot delete category - it is being used by products")
	ErrMediaInUse        = errors.New("Cannot delete media - it is being used by products")
	ErrGroupInUse        = errors.New("Cannot delete group that is assigned to users")
	ErrUserHasSales      = errors.New("Cannot delete user - sales are attributed to this account")
	ErrSelfDelete        = errors.New("You cannot delete your own account")
	ErrSelfStatus        = errors.New("You cannot change your own status")
	ErrUnknownLevel      = errors.New("User level does not match an existing group")
	ErrUnknownCategory   = errors.New("Selected category does not exist")
	ErrUnknownMedia      = errors.New("Selected media does not exist")
	ErrInsufficientStock = errors.New("Insufficient quantity")
	ErrNegativeAmount    = errors.New("Quantities and prices must not be negative")
	ErrInvalidQuantity   = errors.New("Quantity must be greater than zero")
	ErrInvalidLevel      = errors.New("Group level must be a positive number")
	ErrBlankName         = errors.New("Name can't be blank.")
	ErrPasswordMismatch  = errors.New("New password and confirmation do not match")
	ErrSamePassword      = errors.New("New password must differ from the current password")
	ErrInvalidDateRange  = errors.New("Start date must not be after end date")
	ErrFileTooLarge      = errors.New("File too large. Maximum size is 5MB.")
	ErrUnsupportedFile   = errors.New("Only image files (JPEG, PNG, GIF) are allowed")
)

// Authentication.
var (
	ErrInvalidCredentials = errors.New("Invalid username or password")
	ErrWrongPassword      = errors.New("Current password is incorrect")
	ErrLoginLocked        = errors.New("Too many failed attempts")
)

// LockoutError is returned while a username is locked out after repeated
// failed logins.
type LockoutError struct {
	RetryAfter time.Duration
}

// RetryMinutes rounds the remaining lockout up to whole minutes.
func (e *LockoutError) RetryMinutes() int {
	return int(math.Ceil(e.RetryAfter.Minutes()))
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("Too many failed attempts. Try again in %d minutes.", e.RetryMinutes())
}

func (e *LockoutError) Is(target error) bool {
	return target == ErrLoginLocked
}
