package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMergesLines(t *testing.T) {
	c := &Cart{CustomerID: "c-1"}
	assert.True(t, c.IsEmpty())
	require.NoError(t, c.Add("p-1", 1))
	require.NoError(t, c.Add("p-1", 2))
	require.NoError(t, c.Add("p-2", 1))
	assert.ErrorIs(t, c.Add("p-3", 0), ErrInvalidQuantity)

	require.Len(t, c.Items, 2)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.False(t, c.IsEmpty())
}
