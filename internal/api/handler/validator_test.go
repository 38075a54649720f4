package handler

import (
	"errors"
	"testing"

	"github.com/webauth/authd/internal/core/domain"
)

func TestValidator(t *testing.T) {
	v := NewValidator()

	if err := v.Validate(&loginRequest{Username: "bob", Password: "Str0ng!Pass"}); err != nil {
		t.Fatalf("complete request rejected: %v", err)
	}

	tests := []struct {
		name  string
		req   any
		field string
	}{
		{"login without password", &loginRequest{Username: "bob"}, "password"},
		{"login empty", &loginRequest{}, "username"},
		{"register without email", &registerRequest{Username: "bob", Password: "Str0ng!Pass"}, "email"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(tc.req)
			var de *domain.Error
			if !errors.As(err, &de) {
				t.Fatalf("expected *domain.Error, got %T (%v)", err, err)
			}
			if de.Kind != domain.KindValidation || de.Message != domain.MsgEmptyFields {
				t.Fatalf("unexpected error: %+v", de)
			}
			if de.Field != tc.field {
				t.Fatalf("field = %q, want %q", de.Field, tc.field)
			}
		})
	}
}

func TestValidator_NonStructInput(t *testing.T) {
	err := NewValidator().Validate("not a struct")
	if err == nil {
		t.Fatalf("expected an error for non-struct input")
	}
	var de *domain.Error
	if errors.As(err, &de) {
		t.Fatalf("non-struct input must not be reported as a field error: %+v", de)
	}
}
