package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocs(t *testing.T) {
	assert.Equal(t, []string{"config", "psr", "vectors"}, moduleNames())

	t.Run("config", func(t *testing.T) {
		docs, err := configDocs()
		require.NoError(t, err)
		assert.Contains(t, docs, "format: auto")
		assert.Contains(t, docs, "size: 1048576")
		assert.Contains(t, docs, "termination_swi: 0")
	})

	t.Run("psr", func(t *testing.T) {
		docs, err := psrDocs()
		require.NoError(t, err)
		assert.Contains(t, docs, "31")
		assert.Contains(t, docs, " mode ")
		assert.Contains(t, docs, "(unused)")
		assert.Contains(t, docs, "10011  svc")
	})

	t.Run("vectors", func(t *testing.T) {
		docs, err := vectorDocs()
		require.NoError(t, err)
		assert.Contains(t, docs, "0x00000008  swi")
		assert.Contains(t, docs, "0x0000001C  fiq")
	})
}
