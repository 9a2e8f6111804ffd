package storage

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errLockTimeout = errors.New("lock timeout")

func TestRebind(t *testing.T) {
	tests := []struct {
		name     string
		numbered bool
		query    string
		want     string
	}{
		{
			name:  "question marks kept",
			query: `SELECT 1 FROM journals WHERE id = ? AND ledger_id = ?`,
			want:  `SELECT 1 FROM journals WHERE id = ? AND ledger_id = ?`,
		},
		{
			name:     "numbered",
			numbered: true,
			query:    `UPDATE journals SET balance = ? WHERE id = ?`,
			want:     `UPDATE journals SET balance = $1 WHERE id = $2`,
		},
		{
			name:     "many placeholders",
			numbered: true,
			query:    `IN (` + placeholders(11) + `)`,
			want:     `IN ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSQLStore(nil, Dialect{Numbered: tt.numbered})
			assert.Equal(t, tt.want, s.rebind(tt.query))
		})
	}
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}

func TestTranslate(t *testing.T) {
	s := NewSQLStore(nil, Dialect{IsConflict: func(err error) bool { return errors.Is(err, errLockTimeout) }})

	err := s.translate(errLockTimeout)
	require.ErrorIs(t, err, models.ErrConcurrentModification)
	require.ErrorIs(t, err, errLockTimeout)

	other := errors.New("syntax error")
	assert.Same(t, other, s.translate(other))
	assert.NoError(t, s.translate(nil))

	plain := NewSQLStore(nil, Dialect{})
	assert.Same(t, errLockTimeout, plain.translate(errLockTimeout))
}

func TestSortedIDs(t *testing.T) {
	low := uuid.MustParse("10000000-0000-0000-0000-000000000000")
	mid := uuid.MustParse("80000000-0000-0000-0000-000000000000")
	high := uuid.MustParse("f0000000-0000-0000-0000-000000000000")

	assert.Equal(t, []uuid.UUID{low, mid, high}, sortedIDs([]uuid.UUID{high, low, mid, high}))
	assert.Equal(t, []any{low, mid}, idArgs([]uuid.UUID{low, mid}))
}
