package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aussiebroadwan/users/internal/users/domain"
	"github.com/stretchr/testify/require"
)

func TestNewPassword_RuleOrder(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		msg  string
	}{
		{"empty", "", "password is required"},
		{"too short", "Ab1!", "at least 8 characters"},
		{"no digit", "Abcdefg!", "at least one digit"},
		{"no upper", "abcdef1!", "uppercase"},
		{"no lower", "ABCDEF1!", "lowercase"},
		{"no special", "Abcdefg1", "special character"},
		// short and missing everything: length is reported first
		{"short beats classes", "abc", "at least 8 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.NewPassword(tt.raw)
			require.ErrorIs(t, err, domain.ErrValidation)
			require.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestNewPassword_Denylist(t *testing.T) {
	p := domain.DefaultPasswordPolicy().WithDenylist("WINTER2024!")

	_, err := p.Parse("Winter2024!")
	require.ErrorIs(t, err, domain.ErrValidation)
	require.Contains(t, err.Error(), "too common")

	_, err = p.Parse("Summer2024!")
	require.NoError(t, err)
}

func TestNewPassword_Valid(t *testing.T) {
	p, err := domain.NewPassword("Abcdef1!")
	require.NoError(t, err)
	require.Equal(t, "Abcdef1!", p.Plaintext())

	other, err := domain.NewPassword("Abcdef1!")
	require.NoError(t, err)
	require.True(t, p.Equal(other))
}

func TestPassword_NeverPrints(t *testing.T) {
	p, err := domain.NewPassword("Sup3r$ecret")
	require.NoError(t, err)

	for _, s := range []string{p.String(), fmt.Sprint(p), fmt.Sprintf("%v %+v %#v", p, p, p)} {
		require.NotContains(t, s, "Sup3r$ecret")
	}
}

type fakeHasher struct{}

func (fakeHasher) Hash(pw string) (string, error) { return "hashed:" + pw, nil }
func (fakeHasher) Verify(pw, encoded string) error {
	if encoded != "hashed:"+pw {
		return errors.New("mismatch")
	}
	return nil
}

func TestPasswordHash_Matches(t *testing.T) {
	p, err := domain.NewPassword("Abcdef1!")
	require.NoError(t, err)

	h, err := domain.HashPassword(p, fakeHasher{})
	require.NoError(t, err)
	require.True(t, h.Matches("Abcdef1!", fakeHasher{}))
	require.False(t, h.Matches("abcdef1!", fakeHasher{}))
	require.False(t, domain.PasswordHash("").Matches("", fakeHasher{}))
}
