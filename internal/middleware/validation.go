package middleware

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/allevo/cloud-store/internal/model"
)

// Validation limits.
const (
	// MaxUsernameLength is the maximum length of a cart owner in the URL.
	MaxUsernameLength = 64

	// MaxItemTitleLength is the maximum length of an item title.
	MaxItemTitleLength = 256

	// MaxItemDescriptionLength is the maximum length of an item description.
	MaxItemDescriptionLength = 4096
)

// Validation errors.
var (
	ErrUsernameEmpty       = errors.New("username is required")
	ErrUsernameTooLong     = errors.New("username exceeds maximum length")
	ErrUsernameInvalid     = errors.New("username contains invalid characters")
	ErrItemIDInvalid       = errors.New("id must be a non-negative integer")
	ErrItemTitleEmpty      = errors.New("title is required")
	ErrItemTitleTooLong    = errors.New("title exceeds maximum length")
	ErrItemPriceInvalid    = errors.New("price must be a non-negative number")
	ErrItemDescTooLong     = errors.New("description exceeds maximum length")
	ErrItemTextInvalidUTF8 = errors.New("text fields must be valid UTF-8")
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ValidateUsername checks a cart owner taken from the request path.
func ValidateUsername(username string) error {
	if username == "" {
		return ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	if !usernamePattern.MatchString(username) {
		return ErrUsernameInvalid
	}
	return nil
}

// ValidateCartItem checks an item before it reaches the cart service.
func ValidateCartItem(item model.CartItem) error {
	if item.ID < 0 {
		return ErrItemIDInvalid
	}
	if !utf8.ValidString(item.Title) || !utf8.ValidString(item.Description) {
		return ErrItemTextInvalidUTF8
	}
	if strings.TrimSpace(item.Title) == "" {
		return ErrItemTitleEmpty
	}
	if utf8.RuneCountInString(item.Title) > MaxItemTitleLength {
		return ErrItemTitleTooLong
	}
	if item.Price.IsNegative() {
		return ErrItemPriceInvalid
	}
	if utf8.RuneCountInString(item.Description) > MaxItemDescriptionLength {
		return ErrItemDescTooLong
	}
	return nil
}
