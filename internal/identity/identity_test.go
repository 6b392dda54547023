package identity

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreateGeneratesOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device_id")

	id, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestLoadOrCreateIsStableAcrossCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device_id")

	first, err := LoadOrCreate(path)
	require.NoError(t, err)

	second, err := LoadOrCreate(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestLoadOrCreateCreatesMissingParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "device_id")

	id, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}
