// Package validation consolidates the field rules applied before any request
// reaches the services. Each field owns one ordered rule table; the first
// failing rule produces the error message. The services receive only
// pre-validated values and perform no defensive checks of their own.
package validation

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

type stringRule struct {
	ok      func(string) bool
	message string
}

const (
	nameMinLen = 3
	nameMaxLen = 50

	passwordMinLen = 8
	passwordMaxLen = 128

	emailMaxLen = 254

	ageMin = 0
	ageMax = 120

	categoryMaxLen = 50
)

var reservedNames = map[string]struct{}{
	"admin": {}, "root": {}, "system": {}, "null": {}, "undefined": {},
	"administrator": {}, "superuser": {}, "moderator": {}, "owner": {},
	"support": {}, "help": {}, "service": {}, "bot": {}, "api": {},
	"test": {}, "demo": {}, "guest": {}, "anonymous": {}, "user": {},
	"default": {}, "public": {}, "private": {}, "internal": {}, "external": {},
}

var disposableDomains = map[string]struct{}{
	"tempmail.com": {}, "guerrillamail.com": {}, "10minutemail.com": {},
	"throwaway.email": {}, "mailinator.com": {}, "trashmail.com": {},
	"temp-mail.org": {}, "fakeinbox.com": {}, "sharklasers.com": {},
}

var commonPasswords = []string{
	"password", "12345678", "qwerty", "abc123", "monkey", "letmein",
	"trustno1", "dragon", "baseball", "iloveyou", "master", "sunshine",
	"passw0rd", "shadow", "superman", "qazwsx", "football", "welcome",
	"admin123", "toor",
}

var (
	namePattern       = regexp.MustCompile(`^[\p{L}\p{M}\d\s'-]+$`)
	nameHasLetter     = regexp.MustCompile(`[\p{L}\p{M}]`)
	multiSpacePattern = regexp.MustCompile(`\s{2,}`)
	edgeSpecialChars  = regexp.MustCompile(`^[-']|[-']$`)
	emailPattern      = regexp.MustCompile(`^[a-z0-9!#$%&'*+/=?^_` + "`" + `{|}~-]+(?:\.[a-z0-9!#$%&'*+/=?^_` + "`" + `{|}~-]+)*@(?:[a-z0-9](?:[a-z0-9-]*[a-z0-9])?\.)+[a-z0-9](?:[a-z0-9-]*[a-z0-9])?$`)
	lowerPattern      = regexp.MustCompile(`[a-z]`)
	upperPattern      = regexp.MustCompile(`[A-Z]`)
	digitPattern      = regexp.MustCompile(`\d`)
	specialPattern    = regexp.MustCompile(`[@$!%*?&#^()_+=\-\[\]{}|\\:;"'<>,./]`)
)

var sequentialRuns = []string{
	"012", "123", "234", "345", "456", "567", "678", "789",
	"abc", "bcd", "cde", "def",
}

var nameRules = []stringRule{
	{func(s string) bool { return s != "" }, "name is required"},
	{func(s string) bool { _, bad := reservedNames[strings.ToLower(s)]; return !bad }, "this name is reserved"},
	{func(s string) bool { return !multiSpacePattern.MatchString(s) }, "name cannot contain consecutive spaces"},
	{func(s string) bool { return !edgeSpecialChars.MatchString(s) }, "name cannot start or end with special characters"},
	{func(s string) bool { return nameHasLetter.MatchString(s) && namePattern.MatchString(s) }, "name contains invalid characters"},
	{func(s string) bool { n := len([]rune(s)); return n >= nameMinLen && n <= nameMaxLen }, fmt.Sprintf("name must be %d-%d characters", nameMinLen, nameMaxLen)},
}

var emailRules = []stringRule{
	{func(s string) bool { return s != "" }, "email is required"},
	{func(s string) bool { return len(s) <= emailMaxLen }, "email is too long"},
	{func(s string) bool { return emailPattern.MatchString(s) }, "invalid email format"},
	{func(s string) bool { _, bad := disposableDomains[emailDomain(s)]; return !bad }, "disposable email addresses are not allowed"},
}

// hasRepeatedRunes reports whether s contains the same rune three or more
// times in a row. Go's RE2 regexp has no backreferences, so the pattern
// `(.)\1{2,}` cannot compile; this is its literal equivalent.
func hasRepeatedRunes(s string) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
			if run >= 3 {
				return true
			}
		} else {
			prev, run = r, 1
		}
	}
	return false
}

func emailDomain(email string) string {
	if at := strings.LastIndexByte(email, '@'); at >= 0 {
		return email[at+1:]
	}
	return ""
}

// NormalizeEmail lowercases and trims an address; every caller stores and
// compares emails in this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Name validates a user's display name (already trimmed by the caller).
func Name(value string) error {
	value = strings.TrimSpace(value)
	for _, r := range nameRules {
		if !r.ok(value) {
			return errors.New(r.message)
		}
	}
	return nil
}

// Email validates a normalized address.
func Email(value string) error {
	value = NormalizeEmail(value)
	for _, r := range emailRules {
		if !r.ok(value) {
			return errors.New(r.message)
		}
	}
	return nil
}

// Password enforces length and complexity. Name and email are contextual:
// the password must not contain the account's own identifiers. Passwords are
// never trimmed, intentional spaces are preserved.
func Password(value, name, email string) error {
	rules := []stringRule{
		{func(s string) bool { return s != "" }, "password is required"},
		{func(s string) bool { return len(s) >= passwordMinLen }, fmt.Sprintf("password must be at least %d characters", passwordMinLen)},
		{func(s string) bool { return len(s) <= passwordMaxLen }, "password is too long"},
		{func(s string) bool { return lowerPattern.MatchString(s) }, "password must contain a lowercase letter"},
		{func(s string) bool { return upperPattern.MatchString(s) }, "password must contain an uppercase letter"},
		{func(s string) bool { return digitPattern.MatchString(s) }, "password must contain a number"},
		{func(s string) bool { return specialPattern.MatchString(s) }, "password must contain a special character"},
		{notCommonPassword, "this password is too common"},
		{func(s string) bool { return !hasRepeatedRunes(s) }, "password cannot contain repeated characters"},
		{notSequential, "password cannot contain sequential characters"},
	}
	for _, r := range rules {
		if !r.ok(value) {
			return errors.New(r.message)
		}
	}

	lowered := strings.ToLower(value)
	if n := strings.ToLower(strings.TrimSpace(name)); len(n) >= 3 && strings.Contains(lowered, n) {
		return errors.New("password cannot contain your name")
	}
	if local := emailLocalPart(email); len(local) >= 3 && strings.Contains(lowered, local) {
		return errors.New("password cannot contain your email username")
	}
	return nil
}

func notCommonPassword(s string) bool {
	lowered := strings.ToLower(s)
	for _, common := range commonPasswords {
		if strings.Contains(lowered, common) {
			return false
		}
	}
	return true
}

func notSequential(s string) bool {
	lowered := strings.ToLower(s)
	for _, seq := range sequentialRuns {
		if strings.Contains(lowered, seq) {
			return false
		}
	}
	return true
}

func emailLocalPart(email string) string {
	normalized := NormalizeEmail(email)
	if at := strings.IndexByte(normalized, '@'); at > 0 {
		return normalized[:at]
	}
	return ""
}

// Age validates the optional age attribute.
func Age(value int) error {
	if value < ageMin || value > ageMax {
		return fmt.Errorf("age must be between %d and %d", ageMin, ageMax)
	}
	return nil
}

// ItemName validates an inventory item name.
func ItemName(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return errors.New("item name is required")
	}
	if n := len([]rune(value)); n < nameMinLen || n > nameMaxLen {
		return fmt.Errorf("item name must be %d-%d characters", nameMinLen, nameMaxLen)
	}
	return nil
}

// Price validates a non-negative, finite price.
func Price(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return errors.New("price must be a finite number")
	}
	if value < 0 {
		return errors.New("price must not be negative")
	}
	return nil
}

// Quantity validates a non-negative stock count.
func Quantity(value int) error {
	if value < 0 {
		return errors.New("quantity must not be negative")
	}
	return nil
}

// Category validates the free-form category label.
func Category(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return errors.New("category cannot be blank")
	}
	if len([]rune(value)) > categoryMaxLen {
		return fmt.Errorf("category must be at most %d characters", categoryMaxLen)
	}
	return nil
}
