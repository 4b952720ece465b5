package transform

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	perrors "github.com/matzehuels/primgen/pkg/errors"
)

func TestRelocateApply(t *testing.T) {
	tests := []struct {
		name    string
		literal string
		input   string
		want    string
	}{
		{
			name:    "collapses the marked line",
			literal: "MARK",
			input:   "line one\n  // MARK extra stuff\nline three",
			want:    "line one\nMARK\nline three",
		},
		{
			name:    "two markers on one line",
			literal: "MARK",
			input:   "a MARK b MARK c\nd",
			want:    "MARK\nd",
		},
		{
			name:    "markers on several lines",
			literal: "MARK",
			input:   "MARK1\nx\nfoo MARK\n",
			want:    "MARK\nx\nMARK\n",
		},
		{
			name:    "last line without newline",
			literal: "MARK",
			input:   "keep\nfoo MARK",
			want:    "keep\nMARK",
		},
		{
			name:    "metacharacters are literal",
			literal: "a.b",
			input:   "axb\na.b here",
			want:    "axb\na.b",
		},
		{
			name:    "no marker",
			literal: "MARK",
			input:   "nothing\nhere",
			want:    "nothing\nhere",
		},
		{
			name:    "adjacent marked lines",
			literal: "#e#",
			input:   "\tx #e# y\n\t#e#;\nz",
			want:    "#e#\n#e#\nz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRelocate(RelocateConfig{Literal: tt.literal})
			if err != nil {
				t.Fatalf("NewRelocate() error = %v", err)
			}
			got, err := r.Apply(tt.input)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Apply(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestNewRelocateErrors(t *testing.T) {
	for _, literal := range []string{"", "a\nb", "a\r"} {
		_, err := NewRelocate(RelocateConfig{Literal: literal})
		if !perrors.Is(err, perrors.ErrCodeInvalidPattern) {
			t.Errorf("NewRelocate(%q) error = %v, want code %v", literal, err, perrors.ErrCodeInvalidPattern)
		}
	}
}
