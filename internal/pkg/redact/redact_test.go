package redact

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmail(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"typical", "alice@example.com", "al***@example.com"},
		{"short_local", "ab@example.com", "***@example.com"},
		{"one_char_local", "a@x.com", "***@x.com"},
		{"not_an_email", "not-an-email", "***"},
		{"two_at_signs", "a@b@c", "***"},
		{"empty", "", "***"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Email(tc.in))
		})
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	require.Equal(t, "al***", Login("alice"))
	require.Equal(t, "***", Login("al"))
	require.Equal(t, "***", Login(""))
}

func TestTokenAndPassword_NeverEmpty(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, Token())
	require.NotEmpty(t, Password())
	require.NotContains(t, Token(), "secret")
}
