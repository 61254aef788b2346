package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{name: "valid simple", username: "alice", wantErr: false},
		{name: "valid with underscore", username: "alice_01", wantErr: false},
		{name: "valid min length", username: "abc", wantErr: false},
		{name: "valid max length", username: strings.Repeat("a", 32), wantErr: false},
		{name: "empty", username: "", wantErr: true},
		{name: "too short", username: "ab", wantErr: true},
		{name: "too long", username: strings.Repeat("a", 33), wantErr: true},
		{name: "with space", username: "alice smith", wantErr: true},
		{name: "with dash", username: "alice-smith", wantErr: true},
		{name: "cyrillic", username: "алиса", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "valid", email: "a@x.com", wantErr: false},
		{name: "valid subdomain", email: "user@mail.example.org", wantErr: false},
		{name: "empty", email: "", wantErr: true},
		{name: "no at", email: "a.x.com", wantErr: true},
		{name: "no domain", email: "a@", wantErr: true},
		{name: "no tld", email: "a@x", wantErr: true},
		{name: "with space", email: "a b@x.com", wantErr: true},
		{name: "too long", email: strings.Repeat("a", 250) + "@x.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("A@X.COM"))
	assert.Equal(t, "a@x.com", NormalizeEmail("  a@x.com "))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("secret1"))
	assert.Error(t, ValidatePassword(""))
	assert.Error(t, ValidatePassword("12345"))
}
