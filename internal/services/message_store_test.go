package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsechat/pulse-backend/internal/apperr"
)

func TestValidateMessageBody(t *testing.T) {
	t.Parallel()

	text, err := ValidateMessageBody("  hello  ", "")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	// Image-only messages are valid.
	text, err = ValidateMessageBody("", "https://example.com/pic.png")
	require.NoError(t, err)
	assert.Empty(t, text)

	_, err = ValidateMessageBody("", "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = ValidateMessageBody("   ", "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestValidateMessageBody_LengthCountsRunes(t *testing.T) {
	t.Parallel()

	_, err := ValidateMessageBody(strings.Repeat("a", maxMessageLength+1), "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	// Exactly at the limit passes.
	_, err = ValidateMessageBody(strings.Repeat("a", maxMessageLength), "")
	assert.NoError(t, err)

	// Multibyte text at the rune limit is well over the limit in bytes and
	// must still pass.
	wide := strings.Repeat("語", maxMessageLength)
	require.Greater(t, len(wide), maxMessageLength)
	_, err = ValidateMessageBody(wide, "")
	assert.NoError(t, err)

	_, err = ValidateMessageBody(strings.Repeat("語", maxMessageLength+1), "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
