// Package charts shapes a filtered view into Plotly figure payloads for the dashboard page.
package charts

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"cafe-dashboard/internal/dataset"
	"cafe-dashboard/internal/models"
)

// Trace is one Plotly trace object.
type Trace map[string]any

type Figure struct {
	Data   []Trace        `json:"data"`
	Layout map[string]any `json:"layout"`
}

// Figures holds the six dashboard charts, keyed by the element id they render into.
type Figures struct {
	MonthlySales       Figure `json:"monthlySales"`
	SalesOverTime      Figure `json:"salesOverTime"`
	YearlyDistribution Figure `json:"yearlyDistribution"`
	ItemShare          Figure `json:"itemShare"`
	DailyDistribution  Figure `json:"dailyDistribution"`
	ScatterMatrix      Figure `json:"scatterMatrix"`
}

const (
	TitleMonthlySales       = "Monthly Sales by Item"
	TitleSalesOverTime      = "Sales Over Time (Scatter Plot)"
	TitleYearlyDistribution = "Yearly Sales Distribution"
	TitleItemShare          = "Sales Distribution by Item"
	TitleDailyDistribution  = "Sales Distribution by Day"
	TitleScatterMatrix      = "Scatter Matrix of Sales Data"
)

// Build derives every chart from v. An empty view produces figures with no traces.
func Build(v *dataset.View) Figures {
	groups := groupByItem(v)
	return Figures{
		MonthlySales:       monthlySales(groups),
		SalesOverTime:      salesOverTime(groups),
		YearlyDistribution: yearlyDistribution(groups),
		ItemShare:          itemShare(groups),
		DailyDistribution:  dailyDistribution(groups),
		ScatterMatrix:      scatterMatrix(groups),
	}
}

type itemGroup struct {
	item string
	rows []models.Transaction
}

// groupByItem splits the view per item, ordered by item name; rows keep view order.
func groupByItem(v *dataset.View) []itemGroup {
	byItem := make(map[string][]models.Transaction)
	for _, tx := range v.Rows() {
		byItem[tx.Item] = append(byItem[tx.Item], tx)
	}

	names := make([]string, 0, len(byItem))
	for name := range byItem {
		names = append(names, name)
	}
	slices.Sort(names)

	groups := make([]itemGroup, 0, len(names))
	for _, name := range names {
		groups = append(groups, itemGroup{item: name, rows: byItem[name]})
	}
	return groups
}

func layout(title string, extra map[string]any) map[string]any {
	l := map[string]any{
		"title":      map[string]any{"text": title},
		"showlegend": true,
	}
	for k, v := range extra {
		l[k] = v
	}
	return l
}

func monthlySales(groups []itemGroup) Figure {
	traces := make([]Trace, 0, len(groups))
	for _, g := range groups {
		sums := make(map[string]decimal.Decimal)
		for _, tx := range g.rows {
			sums[tx.MonthName] = sums[tx.MonthName].Add(tx.TotalSpent)
		}
		months := make([]string, 0, len(sums))
		for m := range sums {
			months = append(months, m)
		}
		sortMonths(months)

		y := make([]float64, len(months))
		for i, m := range months {
			y[i] = sums[m].InexactFloat64()
		}
		traces = append(traces, Trace{"type": "bar", "name": g.item, "x": months, "y": y})
	}
	return Figure{
		Data: traces,
		Layout: layout(TitleMonthlySales, map[string]any{
			"barmode": "group",
			"xaxis":   map[string]any{"title": map[string]any{"text": dataset.ColMonthName}},
			"yaxis":   map[string]any{"title": map[string]any{"text": dataset.ColTotalSpent}},
		}),
	}
}

func salesOverTime(groups []itemGroup) Figure {
	ref := sizeRef(groups)
	traces := make([]Trace, 0, len(groups))
	for _, g := range groups {
		x := make([]string, len(g.rows))
		y := make([]float64, len(g.rows))
		for i, tx := range g.rows {
			x[i] = tx.TransactionDate.Format("2006-01-02")
			y[i] = tx.TotalSpent.InexactFloat64()
		}
		traces = append(traces, Trace{
			"type":    "scatter",
			"mode":    "markers",
			"name":    g.item,
			"x":       x,
			"y":       y,
			"opacity": 0.7,
			"marker":  map[string]any{"size": y, "sizemode": "area", "sizeref": ref, "sizemin": 2},
		})
	}
	return Figure{
		Data: traces,
		Layout: layout(TitleSalesOverTime, map[string]any{
			"xaxis": map[string]any{"title": map[string]any{"text": dataset.ColTransactionDate}},
			"yaxis": map[string]any{"title": map[string]any{"text": dataset.ColTotalSpent}},
		}),
	}
}

// sizeRef scales marker areas so the largest total renders about 20px across.
func sizeRef(groups []itemGroup) float64 {
	largest := 0.0
	for _, g := range groups {
		for _, tx := range g.rows {
			largest = max(largest, tx.TotalSpent.InexactFloat64())
		}
	}
	if largest == 0 {
		return 1
	}
	return 2.0 * largest / (20 * 20)
}

func yearlyDistribution(groups []itemGroup) Figure {
	traces := make([]Trace, 0, len(groups))
	for _, g := range groups {
		x := make([]int, len(g.rows))
		y := make([]float64, len(g.rows))
		for i, tx := range g.rows {
			x[i] = tx.Year
			y[i] = tx.TotalSpent.InexactFloat64()
		}
		traces = append(traces, Trace{"type": "box", "name": g.item, "x": x, "y": y})
	}
	return Figure{
		Data: traces,
		Layout: layout(TitleYearlyDistribution, map[string]any{
			"boxmode": "group",
			"xaxis":   map[string]any{"title": map[string]any{"text": dataset.ColYear}},
			"yaxis":   map[string]any{"title": map[string]any{"text": dataset.ColTotalSpent}},
		}),
	}
}

func itemShare(groups []itemGroup) Figure {
	if len(groups) == 0 {
		return Figure{Data: []Trace{}, Layout: layout(TitleItemShare, nil)}
	}

	labels := make([]string, len(groups))
	values := make([]float64, len(groups))
	for i, g := range groups {
		sum := decimal.Zero
		for _, tx := range g.rows {
			sum = sum.Add(tx.TotalSpent)
		}
		labels[i] = g.item
		values[i] = sum.InexactFloat64()
	}
	return Figure{
		Data:   []Trace{{"type": "pie", "labels": labels, "values": values}},
		Layout: layout(TitleItemShare, nil),
	}
}

func dailyDistribution(groups []itemGroup) Figure {
	traces := make([]Trace, 0, len(groups))
	for _, g := range groups {
		x := make([]int, len(g.rows))
		for i, tx := range g.rows {
			x[i] = tx.Day
		}
		traces = append(traces, Trace{"type": "histogram", "name": g.item, "x": x})
	}
	return Figure{
		Data: traces,
		Layout: layout(TitleDailyDistribution, map[string]any{
			"barmode": "group",
			"xaxis":   map[string]any{"title": map[string]any{"text": dataset.ColDay}},
			"yaxis":   map[string]any{"title": map[string]any{"text": "count"}},
		}),
	}
}

func scatterMatrix(groups []itemGroup) Figure {
	traces := make([]Trace, 0, len(groups))
	for _, g := range groups {
		totals := make([]float64, len(g.rows))
		quantities := make([]int, len(g.rows))
		prices := make([]float64, len(g.rows))
		for i, tx := range g.rows {
			totals[i] = tx.TotalSpent.InexactFloat64()
			quantities[i] = tx.Quantity
			prices[i] = tx.PricePerUnit.InexactFloat64()
		}
		traces = append(traces, Trace{
			"type": "splom",
			"name": g.item,
			"dimensions": []map[string]any{
				{"label": dataset.ColTotalSpent, "values": totals},
				{"label": dataset.ColQuantity, "values": quantities},
				{"label": dataset.ColPricePerUnit, "values": prices},
			},
			"diagonal": map[string]any{"visible": true},
		})
	}
	return Figure{
		Data:   traces,
		Layout: layout(TitleScatterMatrix, map[string]any{"dragmode": "select"}),
	}
}

var monthOrder = func() map[string]int {
	order := make(map[string]int, 12)
	for m := time.January; m <= time.December; m++ {
		order[m.String()] = int(m)
	}
	return order
}()

// sortMonths orders calendar month names January..December; unknown names follow alphabetically.
func sortMonths(months []string) {
	slices.SortFunc(months, func(a, b string) int {
		ra, okA := monthOrder[a]
		rb, okB := monthOrder[b]
		switch {
		case okA && okB:
			return ra - rb
		case okA:
			return -1
		case okB:
			return 1
		default:
			return cmp.Compare(a, b)
		}
	})
}
