package web

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatches(t *testing.T) {
	criteria := map[string]string{"driver": "web"}

	tests := []struct {
		name string
		body map[string]any
		want bool
	}{
		{"exact", map[string]any{"driver": "web"}, true},
		{"unrelated keys ignored", map[string]any{"driver": "web", "message": "hi", "userId": "u1"}, true},
		{"wrong value", map[string]any{"driver": "slack"}, false},
		{"missing key", map[string]any{"message": "hi"}, false},
		{"nil body", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(criteria, tt.body))
		})
	}
}

func TestMatches_EmptyCriteria(t *testing.T) {
	assert.True(t, Matches(nil, map[string]any{"anything": 1}))
	assert.True(t, Matches(map[string]string{}, nil))
}

func TestMatches_StringifiesValues(t *testing.T) {
	criteria := map[string]string{"version": "2", "beta": "true"}
	assert.True(t, Matches(criteria, map[string]any{"version": 2, "beta": true}))
	assert.False(t, Matches(criteria, map[string]any{"version": 3, "beta": true}))
	assert.False(t, Matches(criteria, map[string]any{"version": []string{"2"}, "beta": true}))
}

func TestMatches_JSONNumber(t *testing.T) {
	criteria := map[string]string{"tenant": "12345678901234567890"}
	assert.True(t, Matches(criteria, map[string]any{"tenant": json.Number("12345678901234567890")}))
	assert.False(t, Matches(criteria, map[string]any{"tenant": json.Number("12345678901234567891")}))
}
