package middleware

import (
	"strings"
	"testing"
)

func TestValidateMessageContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"valid", "Hello, I need help", false},
		{"empty", "", true},
		{"at the size limit", strings.Repeat("a", 100000), false},
		{"over the size limit", strings.Repeat("a", 100001), true},
		{"invalid utf8", string([]byte{0xff, 0xfe}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessageContent(tt.content)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMessageContent() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateConversationID(t *testing.T) {
	if err := ValidateConversationID("conv-1718000000000"); err != nil {
		t.Errorf("valid id rejected: %v", err)
	}
	if err := ValidateConversationID(""); err == nil {
		t.Error("empty id accepted")
	}
	if err := ValidateConversationID(strings.Repeat("x", 129)); err == nil {
		t.Error("oversized id accepted")
	}
}

func TestValidateUserID(t *testing.T) {
	if err := ValidateUserID("user-1"); err != nil {
		t.Errorf("valid id rejected: %v", err)
	}
	if err := ValidateUserID(""); err == nil {
		t.Error("empty id accepted")
	}
	if err := ValidateUserID(strings.Repeat("x", 65)); err == nil {
		t.Error("oversized id accepted")
	}
}

func TestValidateTitle(t *testing.T) {
	if err := ValidateTitle("Billing question"); err != nil {
		t.Errorf("valid title rejected: %v", err)
	}
	if err := ValidateTitle(""); err != nil {
		t.Errorf("empty title rejected: %v", err)
	}
	if err := ValidateTitle(strings.Repeat("x", 257)); err == nil {
		t.Error("oversized title accepted")
	}
}
