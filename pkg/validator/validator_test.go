package validator

import (
	"context"
	"strings"
	"testing"
)

type sample struct {
	Name     string `validate:"required"`
	Email    string `validate:"omitempty,email"`
	Mode     string `validate:"omitempty,eventmode"`
	SubType  string `validate:"omitempty,submissiontype"`
	Deadline string `validate:"omitempty,isotime"`
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      sample
		wantMsg string
	}{
		{"valid", sample{Name: "Hackathon", Email: "a@b.com", Mode: "Hybrid", SubType: "both", Deadline: "2025-12-31T00:00:00Z"}, ""},
		{"missing name", sample{}, ErrFieldRequired},
		{"bad email", sample{Name: "x", Email: "nope"}, ErrInvalidEmail},
		{"bad mode", sample{Name: "x", Mode: "InPerson"}, "Mode must be"},
		{"bad submission type", sample{Name: "x", SubType: "link"}, "Submission type"},
		{"bad deadline", sample{Name: "x", Deadline: "tomorrow"}, "ISO timestamp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(context.Background(), tt.in)
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("error %q does not contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}
