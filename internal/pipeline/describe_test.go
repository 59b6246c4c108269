package pipeline

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafe-dashboard/internal/dataset"
	"cafe-dashboard/internal/models"
)

func TestDescribe_Numerical(t *testing.T) {
	day := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]models.Transaction, 0, 4)
	for i, qty := range []int{1, 2, 3, 4} {
		rows = append(rows, models.Transaction{
			Item:            "Tea",
			Location:        "In-store",
			PaymentMethod:   "Cash",
			Quantity:        qty,
			PricePerUnit:    decimal.NewFromInt(2),
			TotalSpent:      decimal.NewFromInt(int64(qty * 2)),
			TransactionDate: day.AddDate(0, 0, i),
			Year:            2023,
			MonthName:       "June",
			Day:             i + 1,
		})
	}

	desc := Describe(dataset.NewTable(rows))
	require.Len(t, desc.Numerical, 5)

	qty := desc.Numerical[0]
	assert.Equal(t, dataset.ColQuantity, qty.Column)
	assert.Equal(t, 4, qty.Count)
	assert.InDelta(t, 2.5, qty.Mean, 1e-9)
	assert.InDelta(t, 1.2909944, qty.Std, 1e-6)
	assert.Equal(t, 1.0, qty.Min)
	assert.InDelta(t, 1.75, qty.P25, 1e-9)
	assert.InDelta(t, 2.5, qty.P50, 1e-9)
	assert.InDelta(t, 3.25, qty.P75, 1e-9)
	assert.Equal(t, 4.0, qty.Max)

	price := desc.Numerical[1]
	assert.Equal(t, dataset.ColPricePerUnit, price.Column)
	assert.Equal(t, 0.0, price.Std)
}

func TestDescribe_Categorical(t *testing.T) {
	table := dataset.NewTable([]models.Transaction{
		{Item: "Tea", Location: "Takeaway", PaymentMethod: "Cash", MonthName: "May"},
		{Item: "Coffee", Location: "In-store", PaymentMethod: "Cash", MonthName: "May"},
		{Item: "Coffee", Location: "Takeaway", PaymentMethod: "Credit Card", MonthName: "June"},
		{Item: "Tea", Location: "In-store", PaymentMethod: "Cash", MonthName: "June"},
	})

	desc := Describe(table)
	require.Len(t, desc.Categorical, 5)

	item := desc.Categorical[0]
	assert.Equal(t, dataset.ColItem, item.Column)
	assert.Equal(t, 4, item.Count)
	assert.Equal(t, 2, item.Unique)
	assert.Equal(t, "Tea", item.Top, "ties go to the first value seen")
	assert.Equal(t, 2, item.Freq)

	payment := desc.Categorical[1]
	assert.Equal(t, "Cash", payment.Top)
	assert.Equal(t, 3, payment.Freq)
}

func TestDescribe_TransactionIDs(t *testing.T) {
	table := dataset.NewTable([]models.Transaction{
		{TransactionID: "TXN_1", Item: "Tea"},
		{TransactionID: "TXN_2", Item: "Coffee"},
		{TransactionID: "", Item: "Coffee"},
	})

	desc := Describe(table)
	require.Len(t, desc.Categorical, 6)

	ids := desc.Categorical[0]
	assert.Equal(t, dataset.ColTransactionID, ids.Column)
	assert.Equal(t, 2, ids.Count, "blank ids are not counted")
	assert.Equal(t, 2, ids.Unique)
	assert.Equal(t, "TXN_1", ids.Top)
	assert.Equal(t, 1, ids.Freq)
	assert.Equal(t, dataset.ColItem, desc.Categorical[1].Column)
}

func TestDescribe_EmptyTable(t *testing.T) {
	desc := Describe(dataset.NewTable(nil))
	for _, n := range desc.Numerical {
		assert.Equal(t, 0, n.Count)
		assert.Equal(t, 0.0, n.Mean)
	}
	for _, c := range desc.Categorical {
		assert.Equal(t, 0, c.Count)
		assert.Empty(t, c.Top)
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := map[string]string{
		"0":         "$0.00",
		"3.333333":  "$3.33",
		"999.995":   "$1,000.00",
		"1234567.5": "$1,234,567.50",
		"-42.1":     "-$42.10",
		"100000":    "$100,000.00",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatCurrency(decimal.RequireFromString(in)), in)
	}
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "0", FormatCount(0))
	assert.Equal(t, "999", FormatCount(999))
	assert.Equal(t, "1,000", FormatCount(1000))
	assert.Equal(t, "-12,345", FormatCount(-12345))
}
