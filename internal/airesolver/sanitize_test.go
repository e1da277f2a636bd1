package airesolver

import (
	"errors"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "bare object",
			raw:  `{"id": 1}`,
			want: `{"id": 1}`,
		},
		{
			name: "fenced json block",
			raw:  "```json\n{\"id\":1}\n```",
			want: `{"id":1}`,
		},
		{
			name: "prose around the object",
			raw:  `Here are the parameters you asked for: {"category":"books"} — let me know if you need more.`,
			want: `{"category":"books"}`,
		},
		{
			name: "nested objects stay balanced",
			raw:  `{"filter":{"min":1,"max":9}} trailing text`,
			want: `{"filter":{"min":1,"max":9}}`,
		},
		{
			name: "braces inside strings are ignored",
			raw:  `{"note":"use {curly} braces","id":2}`,
			want: `{"note":"use {curly} braces","id":2}`,
		},
		{
			name: "escaped quote inside string",
			raw:  `{"quote":"she said \"hi\"","n":1}`,
			want: `{"quote":"she said \"hi\"","n":1}`,
		},
		{
			name: "array fallback when no object",
			raw:  `The matching ids are [1, 2, 3].`,
			want: `[1, 2, 3]`,
		},
		{
			name:    "no structure at all",
			raw:     "I cannot determine the parameters from that input.",
			wantErr: true,
		},
		{
			name:    "unbalanced open brace",
			raw:     `{"id": 1`,
			wantErr: true,
		},
		{
			name:    "empty reply",
			raw:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sanitize("query-parameters", tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Sanitize(%q) succeeded, want error", tt.raw)
				}
				var resErr *ResolutionError
				if !errors.As(err, &resErr) || resErr.Kind != ErrKindNoStructure {
					t.Errorf("Sanitize(%q) error = %v, want kind %q", tt.raw, err, ErrKindNoStructure)
				}
				return
			}
			if err != nil {
				t.Fatalf("Sanitize(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
