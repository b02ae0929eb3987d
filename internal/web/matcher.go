package web

import (
	"github.com/spf13/cast"
)

// Matches reports whether every criteria key is present in body with an equal value.
// Body values are compared by their string form; keys absent from criteria are ignored,
// so empty criteria match any body.
func Matches(criteria map[string]string, body map[string]any) bool {
	for key, want := range criteria {
		raw, ok := body[key]
		if !ok {
			return false
		}
		got, err := cast.ToStringE(raw)
		if err != nil || got != want {
			return false
		}
	}
	return true
}
