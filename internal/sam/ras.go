package sam

const (
	// DefaultTolerance is the row/column balance tolerance used by
	// Validate and Balance.
	DefaultTolerance = 1e-6

	// MaxRASIterations bounds the RAS rescaling loop.
	MaxRASIterations = 100

	// repairableImbalance is the relative imbalance (against total SAM
	// value) above which the matrix is considered corrupted rather than
	// merely noisy; RAS is not attempted past it.
	repairableImbalance = 0.25
)

// Validate checks balance within tol. If the matrix is unbalanced but within
// the repairable range, it is balanced in place via RAS; otherwise a
// *BalanceError is returned.
func (m *Matrix) Validate(tol float64) error {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	worst, account := m.MaxImbalance()
	if worst <= tol {
		return nil
	}
	total := 0.0
	for _, a := range m.accounts {
		total += m.RowSum(a)
	}
	if total > 0 && worst/total > repairableImbalance {
		return &BalanceError{MaxImbalance: worst, Account: account}
	}
	return m.Balance(tol)
}

// Balance applies RAS rescaling: each row is iteratively scaled by the ratio
// of its column sum to its row sum until the largest discrepancy falls below
// tol. Returns a *BalanceError if it does not converge within
// MaxRASIterations.
func (m *Matrix) Balance(tol float64) error {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	n := len(m.accounts)
	for iter := 0; iter < MaxRASIterations; iter++ {
		for i := 0; i < n; i++ {
			rowSum := 0.0
			colSum := 0.0
			for k := 0; k < n; k++ {
				rowSum += m.data.At(i, k)
				colSum += m.data.At(k, i)
			}
			if rowSum == 0 || colSum == 0 || rowSum == colSum {
				continue
			}
			scale := colSum / rowSum
			for k := 0; k < n; k++ {
				m.data.Set(i, k, m.data.At(i, k)*scale)
			}
		}
		worst, _ := m.MaxImbalance()
		if worst <= tol {
			return nil
		}
	}
	worst, account := m.MaxImbalance()
	return &BalanceError{MaxImbalance: worst, Account: account}
}
