package secrets

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptGetter_WritesPromptAndReadsLine(t *testing.T) {
	var out bytes.Buffer
	getter := NewPromptGetter("Password for %s: ", strings.NewReader("s3cret\n"), &out)

	secret, err := getter.Password("bank")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", secret)
	assert.Equal(t, "Password for bank: ", out.String())
}

func TestPromptGetter_TrimsCarriageReturn(t *testing.T) {
	getter := NewPromptGetter("%s: ", strings.NewReader("s3cret\r\n"), &bytes.Buffer{})

	secret, err := getter.Password("bank")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", secret)
}

func TestPromptGetter_LastLineWithoutNewline(t *testing.T) {
	getter := NewPromptGetter("%s: ", strings.NewReader("s3cret"), &bytes.Buffer{})

	secret, err := getter.Password("bank")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", secret)
}

func TestPromptGetter_EmptyStream(t *testing.T) {
	getter := NewPromptGetter("%s: ", strings.NewReader(""), &bytes.Buffer{})

	_, err := getter.Password("bank")
	assert.Error(t, err)
}

func TestStatic(t *testing.T) {
	getter := Static{"bank": "tok"}

	secret, err := getter.Password("bank")
	require.NoError(t, err)
	assert.Equal(t, "tok", secret)

	_, err = getter.Password("other")
	assert.Error(t, err)
}
