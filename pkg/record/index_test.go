package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_Lookup(t *testing.T) {
	idx := NewIndex([]BindingRecord{
		{Name: "First", Address: "Addr1", Format: "xxx.y"},
		{Name: "Shadowed", Address: "ADDR1", Format: "HH:MM"},
		{Name: "No address"},
		{Name: "Second", Address: "b-2"},
	})

	assert.Equal(t, 2, idx.Len())

	for _, marker := range []string{"Addr1", "addr1", "ADDR1", "aDdR1"} {
		t.Run(marker, func(t *testing.T) {
			rec, ok := idx.Lookup(marker)
			require.True(t, ok)
			assert.Equal(t, "First", rec.Name, "first record with the address should win")
			assert.Equal(t, "Addr1", rec.Address)
		})
	}

	t.Run("miss", func(t *testing.T) {
		_, ok := idx.Lookup("Addr2")
		assert.False(t, ok)
	})

	t.Run("empty_marker", func(t *testing.T) {
		_, ok := idx.Lookup("")
		assert.False(t, ok)
	})

	t.Run("nil_index", func(t *testing.T) {
		var nilIdx *Index
		_, ok := nilIdx.Lookup("Addr1")
		assert.False(t, ok)
		assert.Zero(t, nilIdx.Len())
	})
}
