package charts

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafe-dashboard/internal/dataset"
	"cafe-dashboard/internal/models"
)

func sale(item, month string, day int, total int64) models.Transaction {
	m := map[string]time.Month{"January": time.January, "March": time.March, "May": time.May}[month]
	return models.Transaction{
		Item:            item,
		Location:        "In-store",
		PaymentMethod:   "Cash",
		Quantity:        1,
		PricePerUnit:    decimal.NewFromInt(total),
		TotalSpent:      decimal.NewFromInt(total),
		TransactionDate: time.Date(2023, m, day, 0, 0, 0, 0, time.UTC),
		Year:            2023,
		MonthName:       month,
		Day:             day,
	}
}

func testView() *dataset.View {
	table := dataset.NewTable([]models.Transaction{
		sale("Tea", "May", 3, 3),
		sale("Coffee", "May", 3, 5),
		sale("Coffee", "January", 10, 2),
		sale("Coffee", "May", 20, 4),
		sale("Tea", "March", 1, 6),
	})
	return table.All()
}

func TestBuild_TitlesAndTraceTypes(t *testing.T) {
	figs := Build(testView())

	cases := []struct {
		fig       Figure
		title     string
		traceType string
		traces    int
	}{
		{figs.MonthlySales, TitleMonthlySales, "bar", 2},
		{figs.SalesOverTime, TitleSalesOverTime, "scatter", 2},
		{figs.YearlyDistribution, TitleYearlyDistribution, "box", 2},
		{figs.ItemShare, TitleItemShare, "pie", 1},
		{figs.DailyDistribution, TitleDailyDistribution, "histogram", 2},
		{figs.ScatterMatrix, TitleScatterMatrix, "splom", 2},
	}

	for _, tc := range cases {
		t.Run(tc.title, func(t *testing.T) {
			require.Len(t, tc.fig.Data, tc.traces)
			assert.Equal(t, tc.traceType, tc.fig.Data[0]["type"])
			assert.Equal(t, map[string]any{"text": tc.title}, tc.fig.Layout["title"])
		})
	}
}

func TestBuild_MonthlySalesGroupsByCalendarMonth(t *testing.T) {
	figs := Build(testView())

	coffee := figs.MonthlySales.Data[0]
	assert.Equal(t, "Coffee", coffee["name"])
	assert.Equal(t, []string{"January", "May"}, coffee["x"])
	assert.Equal(t, []float64{2, 9}, coffee["y"])

	tea := figs.MonthlySales.Data[1]
	assert.Equal(t, "Tea", tea["name"])
	assert.Equal(t, []string{"March", "May"}, tea["x"])
	assert.Equal(t, "group", figs.MonthlySales.Layout["barmode"])
}

func TestBuild_PieSumsPerItem(t *testing.T) {
	figs := Build(testView())
	pie := figs.ItemShare.Data[0]
	assert.Equal(t, []string{"Coffee", "Tea"}, pie["labels"])
	assert.Equal(t, []float64{11, 9}, pie["values"])
}

func TestBuild_ScatterKeepsViewOrder(t *testing.T) {
	figs := Build(testView())
	coffee := figs.SalesOverTime.Data[0]
	assert.Equal(t, []string{"2023-05-03", "2023-01-10", "2023-05-20"}, coffee["x"])
	assert.Equal(t, 0.7, coffee["opacity"])
}

func TestBuild_HistogramUsesDay(t *testing.T) {
	figs := Build(testView())
	assert.Equal(t, []int{3, 10, 20}, figs.DailyDistribution.Data[0]["x"])
}

func TestBuild_EmptyView(t *testing.T) {
	figs := Build(dataset.NewTable(nil).All())

	assert.Empty(t, figs.MonthlySales.Data)
	assert.Empty(t, figs.SalesOverTime.Data)
	assert.Empty(t, figs.YearlyDistribution.Data)
	assert.Empty(t, figs.ItemShare.Data)
	assert.Empty(t, figs.DailyDistribution.Data)
	assert.Empty(t, figs.ScatterMatrix.Data)

	raw, err := json.Marshal(figs)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"monthlySales":{"data":[]`)
}

func TestSortMonths(t *testing.T) {
	months := []string{"December", "Unknown", "February", "ERROR", "January"}
	sortMonths(months)
	assert.Equal(t, []string{"January", "February", "December", "ERROR", "Unknown"}, months)
}
