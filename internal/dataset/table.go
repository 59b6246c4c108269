package dataset

import (
	"slices"

	"cafe-dashboard/internal/models"
)

// Dimension is one of the filterable text columns.
type Dimension int

const (
	DimItem Dimension = iota
	DimLocation
	DimPaymentMethod
)

func (d Dimension) String() string {
	switch d {
	case DimItem:
		return ColItem
	case DimLocation:
		return ColLocation
	case DimPaymentMethod:
		return ColPaymentMethod
	default:
		return "unknown"
	}
}

// Value returns the dimension's value for tx.
func (d Dimension) Value(tx models.Transaction) string {
	switch d {
	case DimItem:
		return tx.Item
	case DimLocation:
		return tx.Location
	case DimPaymentMethod:
		return tx.PaymentMethod
	default:
		return ""
	}
}

// Table holds the loaded transactions. It is never mutated after construction,
// so it can be shared between request goroutines without locking.
type Table struct {
	rows    []models.Transaction
	skipped int
}

// NewTable builds a table from a copy of rows.
func NewTable(rows []models.Transaction) *Table {
	return &Table{rows: slices.Clone(rows)}
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

func (t *Table) Row(i int) models.Transaction {
	return t.rows[i]
}

// Rows returns a copy of all rows in load order.
func (t *Table) Rows() []models.Transaction {
	if t == nil {
		return nil
	}
	return slices.Clone(t.rows)
}

// Skipped is the number of data rows dropped during load because they could not be parsed.
func (t *Table) Skipped() int {
	if t == nil {
		return 0
	}
	return t.skipped
}

// Distinct returns the distinct values of d in order of first appearance.
func (t *Table) Distinct(d Dimension) []string {
	if t == nil {
		return []string{}
	}
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, tx := range t.rows {
		v := d.Value(tx)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values
}

// All returns a view over every row.
func (t *Table) All() *View {
	indices := make([]int, t.Len())
	for i := range indices {
		indices[i] = i
	}
	return &View{table: t, indices: indices}
}

// Select returns a view of the rows for which keep returns true.
func (t *Table) Select(keep func(models.Transaction) bool) *View {
	indices := make([]int, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		if keep(t.rows[i]) {
			indices = append(indices, i)
		}
	}
	return &View{table: t, indices: indices}
}

// View is a row subset of a Table, stored as indices into it.
type View struct {
	table   *Table
	indices []int
}

func (v *View) Len() int {
	if v == nil {
		return 0
	}
	return len(v.indices)
}

func (v *View) Row(i int) models.Transaction {
	return v.table.rows[v.indices[i]]
}

// Rows materializes the view in table order.
func (v *View) Rows() []models.Transaction {
	rows := make([]models.Transaction, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		rows = append(rows, v.Row(i))
	}
	return rows
}

// Indices returns the positions of the view's rows in the parent table.
func (v *View) Indices() []int {
	if v == nil {
		return nil
	}
	return slices.Clone(v.indices)
}

func (v *View) Table() *Table {
	return v.table
}
