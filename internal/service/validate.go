package service

import (
	"errors"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"rentalhub/internal/search"

	"github.com/shopspring/decimal"
)

const (
	maxUsernameLen = 150
	maxEmailLen    = 254
	maxPhoneLen    = 20
	minPasswordLen = 8
	// bcrypt only hashes the first 72 bytes and refuses longer input
	maxPasswordBytes = 72
	maxNameLen     = 200
	maxLocationLen = 255
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	// "4", "4.", "4.00" are integral; "4.5" is not
	integralPattern = regexp.MustCompile(`^([+-]?\d+)(\.0*)?$`)

	// decimal(10,2): at most 8 integer digits
	maxMoney = decimal.RequireFromString("99999999.99")
)

func tooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}

func validateUsername(fe FieldErrors, username string) {
	switch {
	case username == "":
		fe.Add("username", "This field is required.")
	case tooLong(username, maxUsernameLen):
		fe.Add("username", "Ensure this field has no more than 150 characters.")
	case !usernamePattern.MatchString(username):
		fe.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}
}

func validateEmail(fe FieldErrors, email string) {
	if email == "" {
		fe.Add("email", "This field is required.")
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || tooLong(email, maxEmailLen) {
		fe.Add("email", "Enter a valid email address.")
	}
}

func validatePassword(fe FieldErrors, password, username string) {
	if password == "" {
		fe.Add("password", "This field is required.")
		return
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		fe.Add("password", "This password is too short. It must contain at least 8 characters.")
	}
	if len(password) > maxPasswordBytes {
		fe.Add("password", "Ensure this field has no more than 72 bytes.")
	}
	if isAllDigits(password) {
		fe.Add("password", "This password is entirely numeric.")
	}
	if username != "" && strings.EqualFold(password, username) {
		fe.Add("password", "The password is too similar to the username.")
	}
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseMoney validates a decimal(10,2) amount. positive requires > 0, otherwise >= 0.
func parseMoney(fe FieldErrors, field, raw string, positive bool) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		fe.Add(field, "This field is required.")
		return decimal.Zero
	}
	d, err := search.ParseDecimal(raw)
	switch {
	case errors.Is(err, search.ErrDecimalRange):
		if d.Exponent() > 0 {
			fe.Add(field, "Ensure that there are no more than 10 digits in total.")
		} else {
			fe.Add(field, "Ensure that there are no more than 2 decimal places.")
		}
		return decimal.Zero
	case err != nil:
		fe.Add(field, "A valid number is required.")
		return decimal.Zero
	}
	switch {
	case positive && !d.IsPositive():
		fe.Add(field, "Ensure this value is greater than 0.")
	case !positive && d.IsNegative():
		fe.Add(field, "Ensure this value is greater than or equal to 0.")
	case !d.Equal(d.Round(2)):
		fe.Add(field, "Ensure that there are no more than 2 decimal places.")
	case d.GreaterThan(maxMoney):
		fe.Add(field, "Ensure that there are no more than 10 digits in total.")
	}
	return d
}

// parseRating accepts integral values in [1,5] only.
func parseRating(fe FieldErrors, raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		fe.Add("rating", "This field is required.")
		return 0
	}
	m := integralPattern.FindStringSubmatch(raw)
	if m == nil {
		fe.Add("rating", "A valid integer is required.")
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > 5 {
		fe.Add("rating", "Rating must be between 1 and 5.")
		return 0
	}
	return n
}
