package pipeline

import (
	"math"
	"slices"

	"cafe-dashboard/internal/dataset"
	"cafe-dashboard/internal/models"
)

// Description is the descriptive-statistics summary of the full table.
type Description struct {
	Numerical   []models.NumericSummary     `json:"numerical"`
	Categorical []models.CategoricalSummary `json:"categorical"`
}

type numericColumn struct {
	name  string
	value func(models.Transaction) float64
}

// An optional column counts non-blank values only and is omitted when every value is blank.
type categoricalColumn struct {
	name     string
	value    func(models.Transaction) string
	optional bool
}

var numericColumns = []numericColumn{
	{dataset.ColQuantity, func(tx models.Transaction) float64 { return float64(tx.Quantity) }},
	{dataset.ColPricePerUnit, func(tx models.Transaction) float64 { return tx.PricePerUnit.InexactFloat64() }},
	{dataset.ColTotalSpent, func(tx models.Transaction) float64 { return tx.TotalSpent.InexactFloat64() }},
	{dataset.ColYear, func(tx models.Transaction) float64 { return float64(tx.Year) }},
	{dataset.ColDay, func(tx models.Transaction) float64 { return float64(tx.Day) }},
}

var categoricalColumns = []categoricalColumn{
	{name: dataset.ColTransactionID, value: func(tx models.Transaction) string { return tx.TransactionID }, optional: true},
	{name: dataset.ColItem, value: func(tx models.Transaction) string { return tx.Item }},
	{name: dataset.ColPaymentMethod, value: func(tx models.Transaction) string { return tx.PaymentMethod }},
	{name: dataset.ColLocation, value: func(tx models.Transaction) string { return tx.Location }},
	{name: dataset.ColTransactionDate, value: func(tx models.Transaction) string { return tx.TransactionDate.Format("2006-01-02") }},
	{name: dataset.ColMonthName, value: func(tx models.Transaction) string { return tx.MonthName }},
}

// Describe summarizes every numeric and categorical column of t.
// An empty table yields zero-valued summaries rather than NaN.
func Describe(t *dataset.Table) Description {
	desc := Description{
		Numerical:   make([]models.NumericSummary, 0, len(numericColumns)),
		Categorical: make([]models.CategoricalSummary, 0, len(categoricalColumns)),
	}

	for _, col := range numericColumns {
		values := make([]float64, t.Len())
		for i := range values {
			values[i] = col.value(t.Row(i))
		}
		summary := summarizeNumeric(values)
		summary.Column = col.name
		desc.Numerical = append(desc.Numerical, summary)
	}

	for _, col := range categoricalColumns {
		values := make([]string, 0, t.Len())
		for i := range t.Len() {
			v := col.value(t.Row(i))
			if col.optional && v == "" {
				continue
			}
			values = append(values, v)
		}
		if col.optional && len(values) == 0 {
			continue
		}
		summary := summarizeCategorical(values)
		summary.Column = col.name
		desc.Categorical = append(desc.Categorical, summary)
	}

	return desc
}

func summarizeNumeric(values []float64) models.NumericSummary {
	n := len(values)
	if n == 0 {
		return models.NumericSummary{}
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	// sample standard deviation; undefined (reported as 0) for a single value
	var std float64
	if n > 1 {
		var sq float64
		for _, v := range sorted {
			sq += (v - mean) * (v - mean)
		}
		std = math.Sqrt(sq / float64(n-1))
	}

	return models.NumericSummary{
		Count: n,
		Mean:  mean,
		Std:   std,
		Min:   sorted[0],
		P25:   percentile(sorted, 0.25),
		P50:   percentile(sorted, 0.50),
		P75:   percentile(sorted, 0.75),
		Max:   sorted[n-1],
	}
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// summarizeCategorical picks the most frequent value; ties go to the value seen first.
func summarizeCategorical(values []string) models.CategoricalSummary {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, v := range values {
		if _, ok := counts[v]; !ok {
			order = append(order, v)
		}
		counts[v]++
	}

	summary := models.CategoricalSummary{
		Count:  len(values),
		Unique: len(counts),
	}
	for _, v := range order {
		if counts[v] > summary.Freq {
			summary.Top = v
			summary.Freq = counts[v]
		}
	}
	return summary
}
