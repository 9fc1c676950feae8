package nos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBundledTable(t *testing.T) {
	ref, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 102, ref.Len())

	entries := ref.Entries()
	for i := 1; i < len(entries); i++ {
		assert.Less(t, entries[i-1].Code, entries[i].Code)
	}
	for _, e := range entries {
		assert.NotEmpty(t, e.Title, "code %d", e.Code)
		assert.NotEmpty(t, e.Chapter, "code %d", e.Code)
	}
}

func TestLookup(t *testing.T) {
	ref := Default()

	e, ok := ref.Lookup(830)
	require.True(t, ok)
	assert.Equal(t, "Patent", e.Title)
	assert.Equal(t, "Property Rights", e.Chapter)

	assert.Equal(t, "Prisoner / Habeas", ref.Chapter(530))
	assert.Equal(t, "830 · Patent", ref.Label(830))

	_, ok = ref.Lookup(999)
	assert.False(t, ok)
	assert.Equal(t, Unknown, ref.Title(999))
	assert.Equal(t, "", ref.Chapter(999))
}

func TestEntriesIsACopy(t *testing.T) {
	ref := Default()
	entries := ref.Entries()
	entries[0].Title = "changed"
	assert.NotEqual(t, "changed", ref.Entries()[0].Title)
}

func TestParseRejectsBadTables(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"two-digit code", "- code: 42\n  title: x\n  chapter: y\n"},
		{"duplicate", "- code: 110\n  title: a\n- code: 110\n  title: b\n"},
		{"not a list", "code: 110\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}
