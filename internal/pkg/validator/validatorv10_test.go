package validator

import (
	"errors"
	"testing"
)

type submitInput struct {
	Owner string `validate:"required"`
	Code  string `validate:"otpcode"`
}

type policyInput struct {
	Pattern   string `validate:"max=16"`
	MinLength int    `validate:"gte=1,lte=256"`
}

func TestV10Validator(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator: %v", err)
	}

	tests := []struct {
		name      string
		in        any
		wantField string
		wantMsg   string
	}{
		{name: "valid code", in: submitInput{Owner: "alice", Code: "123456"}},
		{name: "short code", in: submitInput{Owner: "alice", Code: "12345"}, wantField: "code", wantMsg: "Code must be exactly 6 digits"},
		{name: "letters", in: submitInput{Owner: "alice", Code: "12a456"}, wantField: "code"},
		{name: "missing owner", in: submitInput{Code: "123456"}, wantField: "owner", wantMsg: "Owner is a required field"},
		{name: "lookahead pattern", in: policyInput{Pattern: `^(?=.*\d).{8}$`, MinLength: 8}},
		{name: "long pattern", in: policyInput{Pattern: `^[a-zA-Z0-9!@#$%]+$`, MinLength: 8}, wantField: "pattern"},
		{name: "min length zero", in: policyInput{MinLength: 0}, wantField: "min_length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in)

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var verr V10ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected V10ValidationError, got %v", err)
			}
			msg, ok := verr.Values()[tt.wantField]
			if !ok {
				t.Fatalf("field %q missing from %v", tt.wantField, verr)
			}
			if tt.wantMsg != "" && msg != tt.wantMsg {
				t.Fatalf("message = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}
