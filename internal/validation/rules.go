// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	validation "github.com/jellydator/validation"

	apperrors "github.com/astroeyes/authcore/internal/errors"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

	// passwordCharsetRegex is letters, digits and printable ASCII punctuation.
	passwordCharsetRegex = regexp.MustCompile("^[a-zA-Z0-9!\"#$%&'()*+,\\-./:;<=>?@\\[\\]\\\\^_`{|}~]+$")

	// compactTokenRegex matches three base64url segments separated by dots.
	compactTokenRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+$`)
)

// Field limits shared by request validation and the schema.
const (
	UsernameMinLength    = 8
	UsernameMaxLength    = 32
	PasswordMinLength    = 8
	PasswordMaxLength    = 128
	DisplayNameMaxLength = 32
	DeviceIDMaxLength    = 64
	TokenMaxLength       = 4096
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// PasswordStrength validates password meets minimum security requirements
type PasswordStrength struct {
	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireNumber  bool
	RequireSpecial bool
}

// Validate checks if the password meets the configured requirements
func (p PasswordStrength) Validate(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_password_strength", "password must be a string")
	}

	if len(s) < p.MinLength {
		return validation.NewError(
			"validation_password_min_length",
			"password must be at least "+strconv.Itoa(p.MinLength)+" characters",
		)
	}

	if p.RequireUpper && !containsFunc(s, unicode.IsUpper) {
		return validation.NewError(
			"validation_password_uppercase",
			"password must contain at least one uppercase letter",
		)
	}

	if p.RequireLower && !containsFunc(s, unicode.IsLower) {
		return validation.NewError(
			"validation_password_lowercase",
			"password must contain at least one lowercase letter",
		)
	}

	if p.RequireNumber && !containsFunc(s, unicode.IsNumber) {
		return validation.NewError("validation_password_number", "password must contain at least one number")
	}

	if p.RequireSpecial && !containsFunc(s, isSpecial) {
		return validation.NewError(
			"validation_password_special",
			"password must contain at least one special character",
		)
	}

	return nil
}

// DefaultPasswordStrength is the policy applied to new passwords.
var DefaultPasswordStrength = PasswordStrength{
	MinLength:      PasswordMinLength,
	RequireUpper:   true,
	RequireLower:   true,
	RequireNumber:  true,
	RequireSpecial: true,
}

func containsFunc(s string, fn func(rune) bool) bool {
	return strings.IndexFunc(s, fn) >= 0
}

func isSpecial(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// Username accepts letters, digits and underscores.
var Username = validation.NewStringRuleWithError(
	usernameRegex.MatchString,
	validation.NewError("validation_username_format", "must contain only letters, numbers and underscores"),
)

// PasswordCharset accepts letters, digits and printable ASCII punctuation.
var PasswordCharset = validation.NewStringRuleWithError(
	passwordCharsetRegex.MatchString,
	validation.NewError("validation_password_charset", "must contain only letters, numbers and common symbols"),
)

// CompactToken accepts the three-segment URL-safe form of a bearer credential.
// Signature and claims are checked by the credential codec, not here.
var CompactToken = validation.NewStringRuleWithError(
	compactTokenRegex.MatchString,
	validation.NewError("validation_token_format", "must be a compact bearer token"),
)

// DeviceIDRules are the rules shared by every request carrying a device id.
func DeviceIDRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		NotBlank,
		NoWhitespace,
		validation.Length(1, DeviceIDMaxLength),
	}
}

// TokenRules are the rules shared by every request carrying a bearer credential.
func TokenRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(1, TokenMaxLength),
		CompactToken,
	}
}
