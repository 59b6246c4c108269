// Package pipeline turns the loaded sales table and a filter selection into the
// dashboard's KPI values and the filtered view handed to the charts.
//
// Every function here is a pure computation over its arguments; nothing is cached
// between calls, so callers simply rerun the pipeline whenever the selection changes.
package pipeline

import (
	"errors"
	"slices"

	"github.com/shopspring/decimal"

	"cafe-dashboard/internal/dataset"
	"cafe-dashboard/internal/models"
)

// ErrEmptyDataset means the table has no rows, so the average and the top-selling item are undefined.
var ErrEmptyDataset = errors.New("no data: dataset is empty")

// Selection holds the allowed values per filter dimension. A nil or empty slice
// allows nothing on that dimension.
type Selection struct {
	Items          []string `json:"items"`
	Locations      []string `json:"locations"`
	PaymentMethods []string `json:"payment_methods"`
}

// DefaultSelection selects every distinct value of every dimension.
func DefaultSelection(t *dataset.Table) Selection {
	return Selection{
		Items:          t.Distinct(dataset.DimItem),
		Locations:      t.Distinct(dataset.DimLocation),
		PaymentMethods: t.Distinct(dataset.DimPaymentMethod),
	}
}

// Options returns the distinct values offered by each filter control.
func Options(t *dataset.Table) models.Options {
	sel := DefaultSelection(t)
	return models.Options{
		Items:          sel.Items,
		Locations:      sel.Locations,
		PaymentMethods: sel.PaymentMethods,
	}
}

// Result is one pipeline pass.
type Result struct {
	KPIs models.KPIs
	// KPIErr is ErrEmptyDataset when the table has no rows.
	KPIErr error
	View   *dataset.View
}

// NoData reports whether the KPIs could not be computed.
func (r Result) NoData() bool {
	return errors.Is(r.KPIErr, ErrEmptyDataset)
}

// Run computes the KPIs over the full table and the filtered view for sel.
func Run(t *dataset.Table, sel Selection) Result {
	kpis, err := ComputeKPIs(t)
	return Result{
		KPIs:   kpis,
		KPIErr: err,
		View:   Filter(t, sel),
	}
}

// Filter keeps the rows whose item, location and payment method are all selected.
func Filter(t *dataset.Table, sel Selection) *dataset.View {
	items := toSet(sel.Items)
	locations := toSet(sel.Locations)
	payments := toSet(sel.PaymentMethods)

	return t.Select(func(tx models.Transaction) bool {
		_, okItem := items[tx.Item]
		_, okLocation := locations[tx.Location]
		_, okPayment := payments[tx.PaymentMethod]
		return okItem && okLocation && okPayment
	})
}

// ComputeKPIs reduces the full table to the headline metrics. For an empty table it
// returns zero totals together with ErrEmptyDataset.
func ComputeKPIs(t *dataset.Table) (models.KPIs, error) {
	n := t.Len()
	if n == 0 {
		return models.KPIs{
			TotalSales:         decimal.Zero,
			AverageTransaction: decimal.Zero,
		}, ErrEmptyDataset
	}

	total := decimal.Zero
	byItem := make(map[string]decimal.Decimal)
	for i := 0; i < n; i++ {
		tx := t.Row(i)
		total = total.Add(tx.TotalSpent)
		byItem[tx.Item] = byItem[tx.Item].Add(tx.TotalSpent)
	}

	return models.KPIs{
		TotalSales:         total,
		AverageTransaction: total.Div(decimal.NewFromInt(int64(n))),
		UniqueItems:        len(byItem),
		TopSellingItem:     topItem(byItem),
		RowCount:           n,
	}, nil
}

// topItem returns the item with the largest sum; ties go to the lexicographically smallest name.
func topItem(byItem map[string]decimal.Decimal) string {
	names := make([]string, 0, len(byItem))
	for name := range byItem {
		names = append(names, name)
	}
	slices.Sort(names)

	best := names[0]
	for _, name := range names[1:] {
		if byItem[name].GreaterThan(byItem[best]) {
			best = name
		}
	}
	return best
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
