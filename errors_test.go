package cerebras

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{
			name:     "credential error with status",
			err:      &CredentialError{Op: "status", StatusCode: 403, Message: "cookies rejected by the issuance endpoint"},
			contains: []string{"credential status error", "403", "cookies rejected"},
		},
		{
			name:     "credential error with wrapped cause",
			err:      &CredentialError{Op: "request", Message: "key-issuance endpoint unreachable", Err: errors.New("dial tcp: timeout")},
			contains: []string{"credential request error", "unreachable", "dial tcp"},
		},
		{
			name:     "chat error with status",
			err:      &ChatError{StatusCode: 503, Message: "service unavailable"},
			contains: []string{"chat error", "503", "service unavailable"},
		},
		{
			name:     "chat error without status",
			err:      &ChatError{Message: "completion request failed", Err: errors.New("connection refused")},
			contains: []string{"chat error", "completion request failed", "connection refused"},
		},
		{
			name:     "input error",
			err:      &InputError{Message: "prompt must be a non-empty string"},
			contains: []string{"invalid input", "non-empty"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("Error() = %q, should contain %q", msg, want)
				}
			}
		})
	}
}

func TestErrorPredicates(t *testing.T) {
	credErr := &CredentialError{Op: "status", StatusCode: 401, Message: "rejected"}
	chatErr := &ChatError{StatusCode: 500, Message: "boom"}
	inputErr := &InputError{Message: "empty"}

	tests := []struct {
		name           string
		err            error
		wantCredential bool
		wantChat       bool
		wantInput      bool
	}{
		{"credential error", credErr, true, false, false},
		{"chat error", chatErr, false, true, false},
		{"input error", inputErr, false, false, true},
		{"wrapped credential error", fmt.Errorf("call failed: %w", credErr), true, false, false},
		{"wrapped chat error", fmt.Errorf("call failed: %w", chatErr), false, true, false},
		{"plain error", errors.New("plain"), false, false, false},
		{"nil", nil, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCredentialError(tt.err); got != tt.wantCredential {
				t.Errorf("IsCredentialError() = %v, want %v", got, tt.wantCredential)
			}
			if got := IsChatError(tt.err); got != tt.wantChat {
				t.Errorf("IsChatError() = %v, want %v", got, tt.wantChat)
			}
			if got := IsInputError(tt.err); got != tt.wantInput {
				t.Errorf("IsInputError() = %v, want %v", got, tt.wantInput)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("underlying")

	if got := (&CredentialError{Op: "request", Message: "m", Err: cause}).Unwrap(); got != cause {
		t.Errorf("CredentialError.Unwrap() = %v, want %v", got, cause)
	}
	if got := (&ChatError{Message: "m", Err: cause}).Unwrap(); got != cause {
		t.Errorf("ChatError.Unwrap() = %v, want %v", got, cause)
	}

	wrapped := &ChatError{Message: "request failed", Err: cause}
	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is should see through ChatError")
	}
}
