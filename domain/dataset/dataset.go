package dataset

import (
	"fmt"
	"math"
)

// Dataset is a column-major table of float64 samples. Column names are
// expected to match node names in the causal graph; graph nodes absent
// from the dataset are treated as unobserved.
//
// Datasets are values: mutating operations return a new Dataset sharing
// unchanged column slices with the original. Callers must not mutate
// returned column data.
type Dataset struct {
	names []string
	cols  map[string][]float64
	n     int
}

// FromColumns builds a dataset with the given column order. All columns
// must have equal length.
func FromColumns(names []string, cols map[string][]float64) (*Dataset, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("dataset requires at least one column")
	}
	n := -1
	for _, name := range names {
		vals, ok := cols[name]
		if !ok {
			return nil, fmt.Errorf("column %q listed but not provided", name)
		}
		if n == -1 {
			n = len(vals)
		} else if len(vals) != n {
			return nil, fmt.Errorf("column %q has %d rows, want %d", name, len(vals), n)
		}
	}
	copied := make(map[string][]float64, len(names))
	order := make([]string, len(names))
	copy(order, names)
	for _, name := range names {
		copied[name] = cols[name]
	}
	return &Dataset{names: order, cols: copied, n: n}, nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return d.n }

// Columns returns the column names in order.
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Has reports whether the named column exists.
func (d *Dataset) Has(name string) bool {
	_, ok := d.cols[name]
	return ok
}

// Column returns the named column's values.
func (d *Dataset) Column(name string) ([]float64, bool) {
	vals, ok := d.cols[name]
	return vals, ok
}

// MustColumn returns the named column and panics if it is absent.
// Callers are expected to have validated column presence already;
// a miss here is a programming error, not a data error.
func (d *Dataset) MustColumn(name string) []float64 {
	vals, ok := d.cols[name]
	if !ok {
		panic(fmt.Sprintf("dataset: column %q not present", name))
	}
	return vals
}

// WithColumn returns a copy of the dataset with an extra column appended.
func (d *Dataset) WithColumn(name string, values []float64) (*Dataset, error) {
	if d.Has(name) {
		return nil, fmt.Errorf("column %q already exists", name)
	}
	if len(values) != d.n {
		return nil, fmt.Errorf("column %q has %d rows, want %d", name, len(values), d.n)
	}
	cols := make(map[string][]float64, len(d.cols)+1)
	for k, v := range d.cols {
		cols[k] = v
	}
	cols[name] = values
	names := make([]string, len(d.names), len(d.names)+1)
	copy(names, d.names)
	names = append(names, name)
	return &Dataset{names: names, cols: cols, n: d.n}, nil
}

// WithReplacedColumn returns a copy of the dataset with the named
// column's values replaced. Used by permutation-based refutation checks.
func (d *Dataset) WithReplacedColumn(name string, values []float64) (*Dataset, error) {
	if !d.Has(name) {
		return nil, fmt.Errorf("column %q not present", name)
	}
	if len(values) != d.n {
		return nil, fmt.Errorf("column %q has %d rows, want %d", name, len(values), d.n)
	}
	cols := make(map[string][]float64, len(d.cols))
	for k, v := range d.cols {
		cols[k] = v
	}
	cols[name] = values
	names := make([]string, len(d.names))
	copy(names, d.names)
	return &Dataset{names: names, cols: cols, n: d.n}, nil
}

// Drop returns a copy of the dataset without the named columns.
func (d *Dataset) Drop(names ...string) *Dataset {
	dropped := make(map[string]bool, len(names))
	for _, n := range names {
		dropped[n] = true
	}
	var order []string
	cols := make(map[string][]float64)
	for _, n := range d.names {
		if dropped[n] {
			continue
		}
		order = append(order, n)
		cols[n] = d.cols[n]
	}
	return &Dataset{names: order, cols: cols, n: d.n}
}

// Select returns a new dataset containing the given rows, in order.
// Row indices may repeat (bootstrap resampling). Out-of-range indices
// panic: resampling always draws from [0, Len).
func (d *Dataset) Select(rows []int) *Dataset {
	cols := make(map[string][]float64, len(d.cols))
	for name, vals := range d.cols {
		picked := make([]float64, len(rows))
		for i, r := range rows {
			picked[i] = vals[r]
		}
		cols[name] = picked
	}
	names := make([]string, len(d.names))
	copy(names, d.names)
	return &Dataset{names: names, cols: cols, n: len(rows)}
}

// FreeColumnName returns a column name not present in the dataset,
// derived from the candidate by prefixing underscores until free.
func (d *Dataset) FreeColumnName(candidate string) string {
	name := candidate
	for d.Has(name) {
		name = "_" + name
	}
	return name
}

// IsBinary reports whether the named column contains only 0 and 1
// (NaN entries are ignored).
func (d *Dataset) IsBinary(name string) bool {
	vals, ok := d.cols[name]
	if !ok {
		return false
	}
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		if v != 0 && v != 1 {
			return false
		}
	}
	return true
}

// HasBothLevels reports whether the named column contains at least one 0
// and at least one 1.
func (d *Dataset) HasBothLevels(name string) bool {
	vals, ok := d.cols[name]
	if !ok {
		return false
	}
	var zeros, ones bool
	for _, v := range vals {
		switch v {
		case 0:
			zeros = true
		case 1:
			ones = true
		}
		if zeros && ones {
			return true
		}
	}
	return false
}
