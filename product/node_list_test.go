package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nci/rsproduct/utils"
)

func TestNodeListCaseInsensitive(t *testing.T) {
	l := NewNodeList[*Mask]("mask")
	a := NewMask("Water", "", colourBlue, 0.5)
	require.NoError(t, l.Add(a))

	m, ok := l.Get("WATER")
	require.True(t, ok)
	assert.Same(t, a, m)
	assert.Equal(t, 0, l.IndexOf("water"))
	assert.Equal(t, -1, l.IndexOf("land"))

	err := l.Add(NewMask("water", "", colourBlue, 0))
	require.Error(t, err)
	assert.True(t, utils.IsNameCollision(err))
	assert.Equal(t, 1, l.Len())
}

func TestNodeListAddNilIgnored(t *testing.T) {
	l := NewNodeList[*Mask]("mask")
	require.NoError(t, l.Add(nil))
	assert.Equal(t, 0, l.Len())
}

func TestNodeListInsertRemove(t *testing.T) {
	l := NewNodeList[*Mask]("mask")
	a, b, c := NewMask("a", "", colourBlue, 0), NewMask("b", "", colourBlue, 0), NewMask("c", "", colourBlue, 0)
	require.NoError(t, l.Add(a))
	require.NoError(t, l.Add(c))
	require.NoError(t, l.Insert(b, 1))
	assert.Equal(t, []string{"a", "b", "c"}, l.Names())

	assert.True(t, l.Remove(b))
	assert.False(t, l.Remove(b))
	assert.Equal(t, []string{"a", "c"}, l.Names())
	assert.Equal(t, []*Mask{b}, l.Removed())

	l.ClearRemoved()
	assert.Empty(t, l.Removed())

	l.RemoveAll()
	assert.Equal(t, 0, l.Len())
	assert.Len(t, l.Removed(), 2)

	assert.Error(t, l.Insert(NewMask("d", "", colourBlue, 0), 5))
}

func TestNodeListSubset(t *testing.T) {
	l := NewNodeList[*Mask]("mask")
	for _, n := range []string{"one", "two", "three"} {
		require.NoError(t, l.Add(NewMask(n, "", colourBlue, 0)))
	}
	sub := l.Subset(func(m *Mask) bool { return m.Name() != "two" })
	assert.Equal(t, []string{"one", "three"}, sub.Names())
	assert.Same(t, l.At(0), sub.At(0))
	assert.Equal(t, 3, l.Len())
}

func TestNodeListDispose(t *testing.T) {
	l := NewNodeList[*Band]("band")
	kept := NewBand("kept", TypeUint8, 2, 2)
	dropped := NewBand("dropped", TypeUint8, 2, 2)
	for _, b := range []*Band{kept, dropped} {
		_, err := b.EnsureData()
		require.NoError(t, err)
		require.NoError(t, l.Add(b))
	}
	l.Remove(dropped)
	l.Dispose()

	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.Removed())
	assert.False(t, kept.HasData())
	assert.False(t, dropped.HasData())
}
