package sharelink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	signer := New("test-secret", time.Hour)

	token, err := signer.Issue("PAY-20260901-AB12CD")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	ref, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "PAY-20260901-AB12CD", ref)
}

func TestVerify_Expired(t *testing.T) {
	signer := New("test-secret", time.Hour)

	issued := time.Now().Add(-48 * time.Hour)
	signer.now = func() time.Time { return issued }
	token, err := signer.Issue("PAY-20260901-AB12CD")
	require.NoError(t, err)

	signer.now = time.Now
	_, err = signer.Verify(token)
	assert.ErrorIs(t, err, ErrLinkExpired)
}

func TestVerify_WrongSecret(t *testing.T) {
	issuer := New("secret-a", time.Hour)
	verifier := New("secret-b", time.Hour)

	token, err := issuer.Issue("PAY-20260901-AB12CD")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Garbage(t *testing.T) {
	signer := New("test-secret", time.Hour)

	for _, token := range []string{"", "not-a-token", "aaa.bbb.ccc"} {
		_, err := signer.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}

func TestNew_DefaultTTL(t *testing.T) {
	signer := New("test-secret", 0)
	assert.Equal(t, DefaultTTL, signer.ttl)
}
