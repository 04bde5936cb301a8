package pagination

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-4))
	assert.Equal(t, 10, NormalizeLimit(10))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+1))
	assert.Equal(t, 11, LimitWithBuffer(10))
}

func TestCursorRoundTrip(t *testing.T) {
	encoded := EncodeCursor(Cursor{ID: 42})
	cursor, err := ParseCursor(encoded)
	require.NoError(t, err)
	require.NotNil(t, cursor)
	assert.Equal(t, uint64(42), cursor.ID)
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	cursor, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, cursor)

	_, err = ParseCursor("not-base64!!")
	require.Error(t, err)

	_, err = ParseCursor(base64.StdEncoding.EncodeToString([]byte("created|2024")))
	require.Error(t, err)

	_, err = ParseCursor(base64.RawURLEncoding.EncodeToString([]byte("after:0")))
	require.ErrorIs(t, err, ErrInvalidCursor)
}

func TestTrim(t *testing.T) {
	rows := []uint64{9, 8, 7}
	page, next := Trim(rows, 2, func(v uint64) uint64 { return v })
	assert.Equal(t, []uint64{9, 8}, page)
	cursor, err := ParseCursor(next)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), cursor.ID)

	page, next = Trim(rows, 5, func(v uint64) uint64 { return v })
	assert.Len(t, page, 3)
	assert.Empty(t, next)
}
