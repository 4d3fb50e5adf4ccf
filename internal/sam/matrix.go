// Package sam handles the social accounting matrix: loading, balance
// validation and RAS rebalancing. A SAM is a square table where each cell is
// a payment from the column account to the row account; when balanced, every
// account's row sum equals its column sum.
package sam

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrNotSquare is returned when the account table has mismatched row and
// column sets.
var ErrNotSquare = errors.New("sam: matrix is not square over the same accounts")

// BalanceError reports a SAM whose row/column imbalance is beyond repair.
type BalanceError struct {
	MaxImbalance float64
	Account      string
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("sam: matrix unbalanced beyond tolerance (account %q, max imbalance %.4g)", e.Account, e.MaxImbalance)
}

// Matrix is a square accounting matrix keyed by named accounts.
type Matrix struct {
	accounts []string
	index    map[string]int
	data     *mat.Dense
}

// New builds a zero matrix over the given accounts.
func New(accounts []string) *Matrix {
	idx := make(map[string]int, len(accounts))
	for i, a := range accounts {
		idx[a] = i
	}
	return &Matrix{
		accounts: append([]string(nil), accounts...),
		index:    idx,
		data:     mat.NewDense(len(accounts), len(accounts), nil),
	}
}

// Accounts returns the account names in matrix order.
func (m *Matrix) Accounts() []string { return append([]string(nil), m.accounts...) }

// Size returns the number of accounts.
func (m *Matrix) Size() int { return len(m.accounts) }

// Has reports whether the account exists.
func (m *Matrix) Has(account string) bool {
	_, ok := m.index[account]
	return ok
}

// At returns the payment from column account to row account. Unknown
// accounts read as zero, matching how sparse SAM sources are handled.
func (m *Matrix) At(row, col string) float64 {
	i, ok := m.index[row]
	if !ok {
		return 0
	}
	j, ok := m.index[col]
	if !ok {
		return 0
	}
	return m.data.At(i, j)
}

// Set stores a cell value; unknown accounts are an error.
func (m *Matrix) Set(row, col string, v float64) error {
	i, ok := m.index[row]
	if !ok {
		return fmt.Errorf("sam: unknown row account %q", row)
	}
	j, ok := m.index[col]
	if !ok {
		return fmt.Errorf("sam: unknown column account %q", col)
	}
	m.data.Set(i, j, v)
	return nil
}

// RowSum returns the total receipts of an account.
func (m *Matrix) RowSum(account string) float64 {
	i, ok := m.index[account]
	if !ok {
		return 0
	}
	sum := 0.0
	for j := 0; j < len(m.accounts); j++ {
		sum += m.data.At(i, j)
	}
	return sum
}

// ColSum returns the total payments of an account.
func (m *Matrix) ColSum(account string) float64 {
	j, ok := m.index[account]
	if !ok {
		return 0
	}
	sum := 0.0
	for i := 0; i < len(m.accounts); i++ {
		sum += m.data.At(i, j)
	}
	return sum
}

// MaxImbalance returns the largest |row sum - column sum| across accounts
// and the account where it occurs.
func (m *Matrix) MaxImbalance() (float64, string) {
	worst := 0.0
	account := ""
	for _, a := range m.accounts {
		d := m.RowSum(a) - m.ColSum(a)
		if d < 0 {
			d = -d
		}
		if d > worst {
			worst = d
			account = a
		}
	}
	return worst, account
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	out := New(m.accounts)
	out.data.Copy(m.data)
	return out
}
