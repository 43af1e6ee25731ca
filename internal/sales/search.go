package sales

import (
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/clodamigoles/dossiers.vevo/pkg/errors"
)

const (
	minPhoneDigits = 6
	maxPhoneDigits = 15
)

// ParseSearch classifies a free text admin query as a record id, an email or a phone number.
func ParseSearch(q string) (SearchQuery, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return SearchQuery{}, pkgerrors.New(pkgerrors.CodeValidation, "search query is required")
	}
	if id, err := uuid.Parse(q); err == nil {
		return SearchQuery{Kind: SearchByID, ID: id, Limit: MaxSearchResults}, nil
	}
	if strings.Contains(q, "@") && strings.Contains(q, ".") {
		return SearchQuery{Kind: SearchByEmail, Email: NormalizeEmail(q), Limit: MaxSearchResults}, nil
	}
	if digits := Digits(q); len(digits) >= minPhoneDigits && len(digits) <= maxPhoneDigits && onlyPhoneRunes(q) {
		return SearchQuery{Kind: SearchByPhone, PhoneDigits: digits, Limit: MaxSearchResults}, nil
	}
	return SearchQuery{}, pkgerrors.New(pkgerrors.CodeValidation, "query must be an estimation id, an email or a phone number").
		WithDetails(map[string]string{"q": q})
}

func onlyPhoneRunes(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c == '+', c == ' ', c == '-', c == '.', c == '(', c == ')':
		default:
			return false
		}
	}
	return true
}
