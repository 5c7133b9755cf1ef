package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("job-1", "imports/2024/01/02/ledger.xlsx")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	subject, key, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "job-1", subject)
	require.Equal(t, "imports/2024/01/02/ledger.xlsx", key)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	token, _, err := signer.Generate("job-1", "imports/a.xlsx")
	require.NoError(t, err)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, _, err = signer.Parse(token)
	require.EqualError(t, err, "token expired")
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("job-1", "imports/a.xlsx")
	require.NoError(t, err)

	other := NewSignedURLSigner("other", time.Hour)
	_, _, err = other.Parse(token)
	require.Error(t, err)

	_, _, err = signer.Parse("job-2" + token[len("job-1"):])
	require.Error(t, err)
}
