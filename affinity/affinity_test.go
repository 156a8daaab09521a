package affinity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-pool/api"
)

func TestPinAndRelease(t *testing.T) {
	release, err := Pin(0)
	if errors.Is(err, api.ErrAffinityNotSupported) {
		t.Skip("affinity not supported on this platform")
	}
	require.NoError(t, err)
	assert.NoError(t, release())
}

func TestPinRejectsOutOfRange(t *testing.T) {
	_, err := Pin(NumCPUs())
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
	_, err = Pin(-1)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}
