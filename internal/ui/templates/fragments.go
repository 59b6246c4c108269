package templates

import (
	"html/template"
	"io"

	"cafe-dashboard/internal/dataset"
	"cafe-dashboard/internal/models"
	"cafe-dashboard/internal/pipeline"
)

// MaxDatasetRows caps the rows rendered in the raw dataset table.
const MaxDatasetRows = 500

var kpisTemplate = template.Must(template.New("kpis").Parse(`<section id="kpis" class="kpi-grid">
{{if .NoData}}<div class="kpi-empty">No data: the sales dataset is empty.</div>
{{else}}<div class="kpi-card"><span class="kpi-label">Total Sales</span><span class="kpi-value">{{.TotalSales}}</span></div>
<div class="kpi-card"><span class="kpi-label">Average Transaction</span><span class="kpi-value">{{.AverageTransaction}}</span></div>
<div class="kpi-card"><span class="kpi-label">Unique Items Sold</span><span class="kpi-value">{{.UniqueItems}}</span></div>
<div class="kpi-card"><span class="kpi-label">Top-Selling Item</span><span class="kpi-value">{{.TopSellingItem}}</span></div>
{{end}}</section>`))

var viewSummaryTemplate = template.Must(template.New("viewSummary").Parse(`<p id="view-summary" class="view-summary">{{if .Filtered}}Showing {{.Filtered}} of {{.Total}} transactions{{else}}No matching transactions{{end}}</p>`))

var datasetTemplate = template.Must(template.New("dataset").Parse(`<div id="dataset">
{{if .Show}}{{if .Rows}}<table class="modern-table">
<thead><tr><th>Transaction ID</th><th>Item</th><th>Quantity</th><th>Price Per Unit</th><th>Total Spent</th><th>Payment Method</th><th>Location</th><th>Transaction Date</th></tr></thead>
<tbody>
{{range .Rows}}<tr>
<td>{{.TransactionID}}</td>
<td>{{.Item}}</td>
<td>{{.Quantity}}</td>
<td>{{.PricePerUnit.StringFixed 2}}</td>
<td><strong>{{.TotalSpent.StringFixed 2}}</strong></td>
<td>{{.PaymentMethod}}</td>
<td>{{.Location}}</td>
<td>{{.TransactionDate.Format "2006-01-02"}}</td>
</tr>{{end}}
</tbody>
</table>
{{if .Truncated}}<p class="table-note">First {{len .Rows}} of {{.Total}} rows shown.</p>{{end}}
{{else}}<p class="table-note">No transactions loaded</p>{{end}}{{end}}
</div>`))

var describeTemplate = template.Must(template.New("describe").Parse(`<section id="describe" class="describe">
<h3>Numerical Columns</h3>
<table class="modern-table">
<thead><tr><th></th><th>count</th><th>mean</th><th>std</th><th>min</th><th>25%</th><th>50%</th><th>75%</th><th>max</th></tr></thead>
<tbody>
{{range .Numerical}}<tr><th>{{.Column}}</th><td>{{.Count}}</td><td>{{printf "%.2f" .Mean}}</td><td>{{printf "%.2f" .Std}}</td><td>{{printf "%.2f" .Min}}</td><td>{{printf "%.2f" .P25}}</td><td>{{printf "%.2f" .P50}}</td><td>{{printf "%.2f" .P75}}</td><td>{{printf "%.2f" .Max}}</td></tr>
{{end}}</tbody>
</table>
<h3>Categorical Columns</h3>
<table class="modern-table">
<thead><tr><th></th><th>count</th><th>unique</th><th>top</th><th>freq</th></tr></thead>
<tbody>
{{range .Categorical}}<tr><th>{{.Column}}</th><td>{{.Count}}</td><td>{{.Unique}}</td><td>{{.Top}}</td><td>{{.Freq}}</td></tr>
{{end}}</tbody>
</table>
</section>`))

// KPIView holds the display strings of the KPI cards.
type KPIView struct {
	NoData             bool   `json:"-"`
	TotalSales         string `json:"total_sales"`
	AverageTransaction string `json:"average_transaction"`
	UniqueItems        string `json:"unique_items"`
	TopSellingItem     string `json:"top_selling_item"`
}

func NewKPIView(result pipeline.Result) KPIView {
	if result.NoData() {
		return KPIView{NoData: true}
	}
	return KPIView{
		TotalSales:         pipeline.FormatCurrency(result.KPIs.TotalSales),
		AverageTransaction: pipeline.FormatCurrency(result.KPIs.AverageTransaction),
		UniqueItems:        pipeline.FormatCount(result.KPIs.UniqueItems),
		TopSellingItem:     result.KPIs.TopSellingItem,
	}
}

type ViewSummary struct {
	Filtered int
	Total    int
}

func NewViewSummary(v *dataset.View) ViewSummary {
	return ViewSummary{Filtered: v.Len(), Total: v.Table().Len()}
}

// DatasetView is the raw table of v's rows. Show mirrors the "Show Dataset" toggle.
type DatasetView struct {
	Show      bool
	Rows      []models.Transaction
	Total     int
	Truncated bool
}

func NewDatasetView(v *dataset.View, show bool) DatasetView {
	if !show {
		return DatasetView{}
	}
	n := min(v.Len(), MaxDatasetRows)
	rows := make([]models.Transaction, n)
	for i := range n {
		rows[i] = v.Row(i)
	}
	return DatasetView{
		Show:      true,
		Rows:      rows,
		Total:     v.Len(),
		Truncated: v.Len() > n,
	}
}

func RenderKPIs(w io.Writer, v KPIView) error {
	return kpisTemplate.Execute(w, v)
}

func RenderViewSummary(w io.Writer, v ViewSummary) error {
	return viewSummaryTemplate.Execute(w, v)
}

func RenderDataset(w io.Writer, v DatasetView) error {
	return datasetTemplate.Execute(w, v)
}

func RenderDescribe(w io.Writer, d pipeline.Description) error {
	return describeTemplate.Execute(w, d)
}
