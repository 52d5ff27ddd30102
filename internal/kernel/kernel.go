package kernel

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Kernel is a square matrix of convolution weights, indexed [row][column]
type Kernel [][]float64

// InvalidKernelError is returned when a kernel can't be used for convolution
type InvalidKernelError struct {
	Reason string
}

func (e *InvalidKernelError) Error() string {
	return fmt.Sprintf("invalid kernel: %s", e.Reason)
}

func invalid(format string, args ...interface{}) error {
	return &InvalidKernelError{Reason: fmt.Sprintf(format, args...)}
}

// Size returns the number of rows in the kernel
func (k Kernel) Size() int {
	return len(k)
}

// Radius returns the half-width of the kernel, (size-1)/2
func (k Kernel) Radius() int {
	return (len(k) - 1) / 2
}

// Validate checks that the kernel is non-empty, square, odd-sized and only holds finite weights
func (k Kernel) Validate() error {
	n := len(k)
	if n == 0 {
		return invalid("empty")
	}

	if n%2 == 0 {
		return invalid("even dimension %d", n)
	}

	for y, row := range k {
		if len(row) != n {
			return invalid("row %d has %d cells, expected %d", y, len(row), n)
		}

		for x, w := range row {
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return invalid("non-finite weight at %d,%d", y, x)
			}
		}
	}

	return nil
}

// Sum returns the sum of all weights
func (k Kernel) Sum() float64 {
	var sum float64
	for _, row := range k {
		sum += floats.Sum(row)
	}

	return sum
}

// Normalize returns a copy of the kernel with its weights divided by their sum
// Kernels that sum to zero, such as edge detectors, are returned unscaled
func (k Kernel) Normalize() Kernel {
	out := k.Clone()

	sum := k.Sum()
	if sum == 0 {
		return out
	}

	for _, row := range out {
		floats.Scale(1/sum, row)
	}

	return out
}

// Clone returns a deep copy of the kernel
func (k Kernel) Clone() Kernel {
	out := make(Kernel, len(k))
	for i, row := range k {
		out[i] = append([]float64(nil), row...)
	}

	return out
}

// Equal reports whether both kernels have identical weights
func (k Kernel) Equal(other Kernel) bool {
	if len(k) != len(other) {
		return false
	}

	for i := range k {
		if !floats.Same(k[i], other[i]) {
			return false
		}
	}

	return true
}

// String formats the kernel as a matrix literal, rows separated by ';' and cells by ','
func (k Kernel) String() string {
	var buf strings.Builder
	for y, row := range k {
		if y > 0 {
			buf.WriteByte(';')
		}

		for x, w := range row {
			if x > 0 {
				buf.WriteByte(',')
			}

			buf.WriteString(strconv.FormatFloat(w, 'g', -1, 64))
		}
	}

	return buf.String()
}

// Parse parses a matrix literal such as "0,-1,0;-1,5,-1;0,-1,0" and validates the result
func Parse(s string) (Kernel, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, invalid("empty")
	}

	rows := strings.Split(s, ";")
	k := make(Kernel, len(rows))
	for y, row := range rows {
		cells := strings.Split(row, ",")
		k[y] = make([]float64, len(cells))

		for x, cell := range cells {
			w, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, invalid("cell %d,%d: %q is not a number", y, x, cell)
			}

			k[y][x] = w
		}
	}

	if err := k.Validate(); err != nil {
		return nil, err
	}

	return k, nil
}
