package validators

import (
	"net/http"
	"strconv"
	"strings"
	"unicode"

	pkgerrors "github.com/clodamigoles/dossiers.vevo/pkg/errors"
)

// CleanText trims input and folds whitespace runs into single spaces.
// Control characters are dropped; maxRunes caps the result when positive.
func CleanText(input string, maxRunes int) string {
	var b strings.Builder
	b.Grow(len(input))
	n, space := 0, false
	for _, r := range strings.TrimSpace(input) {
		if maxRunes > 0 && n >= maxRunes {
			break
		}
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case unicode.IsControl(r):
			continue
		}
		if space {
			if maxRunes > 0 && n+1 >= maxRunes {
				break
			}
			b.WriteByte(' ')
			n++
			space = false
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}

// QueryInt reads an integer query parameter, returning def when it is absent.
func QueryInt(r *http.Request, key string, def, lo, hi int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" must be a whole number").
			WithDetails(map[string]any{"field": key})
	case v < lo || v > hi:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" is out of range").
			WithDetails(map[string]any{"field": key, "min": lo, "max": hi})
	}
	return v, nil
}
