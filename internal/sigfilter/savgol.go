package sigfilter

import "fmt"

// SavGol smooths by least-squares polynomial regression over a sliding
// window (the Savitzky-Golay scheme, evaluated at the window's newest point
// so it stays causal). Until the window fills, Update passes the raw sample
// through unchanged; smoothing starts at sample W.
//
// Cost is O(W) per sample for the normal-equation sums plus a fixed
// (order+1)-square solve, fine at winch polling rates.
type SavGol struct {
	window int
	order  int

	ring   []float64
	next   int
	filled bool
}

func NewSavGol(window, order int) (*SavGol, error) {
	if window < 3 {
		return nil, fmt.Errorf("%w: %d", ErrWindowSmall, window)
	}
	if window%2 == 0 {
		return nil, fmt.Errorf("%w: %d", ErrWindowEven, window)
	}
	if order < 0 || order >= window {
		return nil, fmt.Errorf("%w: order %d, window %d", ErrOrderRange, order, window)
	}
	return &SavGol{
		window: window,
		order:  order,
		ring:   make([]float64, window),
	}, nil
}

func (f *SavGol) Update(raw float64) float64 {
	f.ring[f.next] = raw
	f.next++
	if f.next == f.window {
		f.next = 0
		f.filled = true
	}
	if !f.filled {
		return raw
	}
	return f.fitNewest()
}

// fitNewest fits a degree-order polynomial to the window (x = 0..W-1 in
// arrival order) and evaluates it at the newest point x = W-1.
func (f *SavGol) fitNewest() float64 {
	w := f.window
	terms := f.order + 1

	// Normal equations for least squares: A*c = b with
	// A[j][k] = sum x^(j+k), b[j] = sum y*x^j.
	a := make([][]float64, terms)
	b := make([]float64, terms)
	for j := range a {
		a[j] = make([]float64, terms)
	}
	for i := 0; i < w; i++ {
		x := float64(i)
		y := f.ring[(f.next+i)%w] // oldest first
		xp := 1.0
		pows := make([]float64, 2*terms-1)
		for p := range pows {
			pows[p] = xp
			xp *= x
		}
		for j := 0; j < terms; j++ {
			b[j] += y * pows[j]
			for k := 0; k < terms; k++ {
				a[j][k] += pows[j+k]
			}
		}
	}

	coeffs := solve(a, b)

	x := float64(w - 1)
	fitted := 0.0
	xp := 1.0
	for _, c := range coeffs {
		fitted += c * xp
		xp *= x
	}
	return fitted
}

// solve runs Gaussian elimination with partial pivoting on a small dense
// system. The normal matrix for distinct x values is nonsingular; a zero
// pivot would only come from a configuration the constructor already rejects.
func solve(a [][]float64, b []float64) []float64 {
	n := len(b)
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if abs(a[row][col]) > abs(a[pivot][col]) {
				pivot = row
			}
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]
		if a[col][col] == 0 {
			continue
		}
		for row := col + 1; row < n; row++ {
			factor := a[row][col] / a[col][col]
			for k := col; k < n; k++ {
				a[row][k] -= factor * a[col][k]
			}
			b[row] -= factor * b[col]
		}
	}
	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := b[row]
		for k := row + 1; k < n; k++ {
			sum -= a[row][k] * x[k]
		}
		if a[row][row] != 0 {
			x[row] = sum / a[row][row]
		}
	}
	return x
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
