package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUUIDv7(t *testing.T) {
	id := GenerateUUIDv7()
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestParseOptionalUUID(t *testing.T) {
	got, err := ParseOptionalUUID("  ")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseOptionalUUID("nope")
	assert.Error(t, err)

	id := uuid.New()
	got, err = ParseOptionalUUID(id.String())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, *got)
}

func TestNewPage(t *testing.T) {
	assert.Equal(t, Page{Page: 1, Limit: DefaultPageLimit}, NewPage(0, 0))
	assert.Equal(t, Page{Page: 3, Limit: MaxPageLimit}, NewPage(3, 10_000))
	assert.Equal(t, Page{Page: 2, Limit: 20}, NewPage(2, 20))
}

func TestPageOffsetAndMeta(t *testing.T) {
	p := NewPage(3, 20)
	assert.Equal(t, 40, p.Offset())

	meta := p.Meta(41)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, int64(41), meta.TotalCount)

	assert.Equal(t, 0, NewPage(1, 20).Meta(0).TotalPages)
	assert.Equal(t, 0, Page{}.Offset())
}
