package validate

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	// Kenyan mobile numbers: 0 or +254, then a 7xx/1xx prefix and 8 digits.
	phonePattern = regexp.MustCompile(`^(\+254|0)[17]\d{8}$`)
)

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(strings.TrimSpace(phone))
}

// FormatKES renders an amount as Kenyan Shillings with zero decimal places
// and thousands grouping, e.g. 69600 -> "KES 69,600". Fractions are rounded
// to the nearest shilling.
func FormatKES(amount float64) string {
	n := int64(math.Round(amount))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return "KES " + sign + b.String()
}
