package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFacts(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{name: "plain object", raw: `{"facts": ["a", "b"]}`, want: []string{"a", "b"}},
		{name: "empty list", raw: `{"facts": []}`, want: []string{}},
		{name: "code fence", raw: "```json\n{\"facts\": [\"a\"]}\n```", want: []string{"a"}},
		{name: "extra keys ignored", raw: `{"facts": ["a"], "note": 1}`, want: []string{"a"}},
		{name: "missing opening quote", raw: `{facts": ["a"]}`, want: []string{"a"}},
		{name: "missing key", raw: `{"tags": ["a"]}`, wantErr: true},
		{name: "null list", raw: `{"facts": null}`, wantErr: true},
		{name: "null item", raw: `{"facts": ["a", null]}`, wantErr: true},
		{name: "non-string item", raw: `{"facts": ["a", 2]}`, wantErr: true},
		{name: "not a list", raw: `{"facts": "a"}`, wantErr: true},
		{name: "top-level array", raw: `["a"]`, wantErr: true},
		{name: "not json", raw: `sure, here are the facts`, wantErr: true},
		{name: "empty", raw: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFacts(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedPayload)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTags(t *testing.T) {
	got, err := ParseTags(`{"tags": ["finance", "legal"]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"finance", "legal"}, got)

	_, err = ParseTags(`{"facts": ["finance"]}`)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "valid unchanged", in: `{"facts": ["a, b"]}`, want: `{"facts": ["a, b"]}`},
		{name: "first key", in: `{facts": []}`, want: `{"facts": []}`},
		{name: "later key", in: `{"a": 1, b": 2}`, want: `{"a": 1, "b": 2}`},
		{name: "string content untouched", in: `{"facts": ["x, y\": z"]}`, want: `{"facts": ["x, y\": z"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repairJSON(tt.in))
		})
	}
}
