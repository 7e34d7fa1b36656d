package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/astroeyes/authcore/internal/errors"
)

func TestRegisterInput_Validate(t *testing.T) {
	valid := RegisterInput{Username: "alice_wonder", Password: "Sup3r-Secret!", DisplayName: "Alice"}

	tests := []struct {
		name    string
		mutate  func(*RegisterInput)
		wantErr string
	}{
		{name: "valid", mutate: func(*RegisterInput) {}},
		{name: "missing username", mutate: func(i *RegisterInput) { i.Username = "" }, wantErr: "username is required"},
		{name: "short username", mutate: func(i *RegisterInput) { i.Username = "alice" }, wantErr: "Username"},
		{name: "username charset", mutate: func(i *RegisterInput) { i.Username = "alice.wonder" }, wantErr: "letters, numbers and underscores"},
		{name: "long username", mutate: func(i *RegisterInput) { i.Username = strings.Repeat("a", 33) }, wantErr: "Username"},
		{name: "missing password", mutate: func(i *RegisterInput) { i.Password = "" }, wantErr: "password is required"},
		{name: "no uppercase", mutate: func(i *RegisterInput) { i.Password = "sup3r-secret!" }, wantErr: "uppercase"},
		{name: "no special", mutate: func(i *RegisterInput) { i.Password = "Sup3rSecret" }, wantErr: "special"},
		{name: "non ascii password", mutate: func(i *RegisterInput) { i.Password = "Sup3r-Secrét!" }, wantErr: "common symbols"},
		{name: "blank display name", mutate: func(i *RegisterInput) { i.DisplayName = "   " }, wantErr: "DisplayName"},
		{name: "long display name", mutate: func(i *RegisterInput) { i.DisplayName = strings.Repeat("x", 33) }, wantErr: "DisplayName"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := valid
			tt.mutate(&input)

			err := input.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRegisterInput_Normalize(t *testing.T) {
	input := RegisterInput{Username: "alice_wonder", Password: " Sup3r-Secret! ", DisplayName: "  Alice  "}

	normalized := input.Normalize()

	assert.Equal(t, "Alice", normalized.DisplayName)
	assert.Equal(t, " Sup3r-Secret! ", normalized.Password, "passwords are never trimmed")
	assert.Equal(t, "  Alice  ", input.DisplayName, "receiver is unchanged")
}

func TestAuthenticateInput_Validate(t *testing.T) {
	assert.NoError(t, AuthenticateInput{Username: "bob", Password: "x"}.Validate())

	err := AuthenticateInput{Password: "x"}.Validate()
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "username is required")

	err = AuthenticateInput{Username: "bob", Password: strings.Repeat("x", 129)}.Validate()
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
