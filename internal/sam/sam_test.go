package sam

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func balancedMatrix(t *testing.T) *Matrix {
	t.Helper()
	m := New([]string{"A", "B", "C"})
	// Circular payments: every row sum equals its column sum.
	require.NoError(t, m.Set("A", "B", 10))
	require.NoError(t, m.Set("B", "C", 10))
	require.NoError(t, m.Set("C", "A", 10))
	return m
}

func TestValidateBalanced(t *testing.T) {
	m := balancedMatrix(t)
	require.NoError(t, m.Validate(DefaultTolerance))
	worst, _ := m.MaxImbalance()
	assert.LessOrEqual(t, worst, DefaultTolerance)
}

func TestRASIdempotentOnBalanced(t *testing.T) {
	m := balancedMatrix(t)
	before := m.Clone()
	require.NoError(t, m.Balance(DefaultTolerance))

	for _, r := range m.Accounts() {
		for _, c := range m.Accounts() {
			assert.InDelta(t, before.At(r, c), m.At(r, c), DefaultTolerance,
				"cell (%s,%s) moved on an already balanced matrix", r, c)
		}
	}
}

func TestRASRepairsSmallImbalance(t *testing.T) {
	m := balancedMatrix(t)
	// Nudge one cell by 2%.
	require.NoError(t, m.Set("A", "B", 10.2))
	worst, _ := m.MaxImbalance()
	require.Greater(t, worst, DefaultTolerance)

	require.NoError(t, m.Validate(DefaultTolerance))
	worst, _ = m.MaxImbalance()
	assert.LessOrEqual(t, worst, DefaultTolerance)
}

func TestValidateRejectsCorruptMatrix(t *testing.T) {
	m := New([]string{"A", "B"})
	require.NoError(t, m.Set("A", "B", 100))
	// B pays 100 but receives nothing: imbalance is the whole matrix.
	err := m.Validate(DefaultTolerance)
	require.Error(t, err)

	var be *BalanceError
	require.ErrorAs(t, err, &be)
	assert.Greater(t, be.MaxImbalance, 0.0)
	assert.NotEmpty(t, be.Account)
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sam.csv")
	csv := ",A,B\nA,0,5\nB,5,0\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	m, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Size())
	assert.Equal(t, 5.0, m.At("A", "B"))
	assert.Equal(t, 5.0, m.At("B", "A"))
	assert.Zero(t, m.At("A", "A"))
}

func TestLoadCSVNotSquare(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.csv")
	csv := ",A,B\nA,0,5\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	_, err := LoadCSV(path)
	require.ErrorIs(t, err, ErrNotSquare)
}

func TestLoadCSVMismatchedAccounts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.csv")
	csv := ",A,B\nA,0,5\nC,5,0\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	_, err := LoadCSV(path)
	require.ErrorIs(t, err, ErrNotSquare)
}
