package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentInsufficientShortfall(t *testing.T) {
	err := NewPaymentInsufficient(50000, 40000)
	assert.Equal(t, CodePaymentInsufficient, Code(err))

	pe, ok := AsPaymentInsufficient(err)
	require.True(t, ok)
	assert.Equal(t, int64(10000), pe.ShortfallCents())
}

func TestAsPaymentInsufficientThroughWrapping(t *testing.T) {
	err := fmt.Errorf("transition rejected: %w", NewPaymentInsufficient(100, 50))
	pe, ok := AsPaymentInsufficient(err)
	require.True(t, ok)
	assert.Equal(t, int64(50), pe.ShortfallCents())

	_, ok = AsPaymentInsufficient(errors.New("plain"))
	assert.False(t, ok)
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, CodeInternal, Code(errors.New("boom")))
}

func TestCodeUnwrapsNesting(t *testing.T) {
	err := fmt.Errorf("outer: %w", NotFound("record", nil))
	assert.Equal(t, CodeNotFound, Code(err))
}

func TestInvalidTransitionMessage(t *testing.T) {
	err := InvalidTransition("ordered", "sample_taken")
	assert.Contains(t, err.Error(), "ordered")
	assert.Contains(t, err.Error(), "sample_taken")
}
