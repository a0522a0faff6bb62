package rejection

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsUnwrapsWrappedRejection(t *testing.T) {
	err := fmt.Errorf("intake: %w", New(WrongAnswer, "challengeAnswer", "Incorrect answer."))

	rej, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, WrongAnswer, rej.Kind)
	assert.Equal(t, "challengeAnswer", rej.Field)
	assert.True(t, Is(err, WrongAnswer))
	assert.False(t, Is(err, Expired))
}

func TestAsIgnoresPlainErrors(t *testing.T) {
	_, ok := As(fmt.Errorf("boom"))
	assert.False(t, ok)
	assert.False(t, Is(nil, MissingField))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "MissingField (title): Title is required", New(MissingField, "title", "Title is required").Error())
	assert.Equal(t, "RateLimited: slow down", New(RateLimited, "", "slow down").Error())
}
