package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindUnwrapsWrappedSentinels(t *testing.T) {
	err := fmt.Errorf("%w: status 429", ErrRateLimited)
	assert.Equal(t, ErrRateLimited, Kind(err))
	assert.Nil(t, Kind(errors.New("boom")))
}

func TestMessageFallsBackToErrorText(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "Please load a PDF first.", Message(fmt.Errorf("analyze: %w", ErrNoDocumentLoaded)))
	assert.Equal(t, "Disk full", Message(errors.New("disk full")))
}
