package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one café sale as read from the sales CSV.
type Transaction struct {
	TransactionID   string          `json:"transaction_id,omitempty"`
	Item            string          `json:"item"`
	Location        string          `json:"location"`
	PaymentMethod   string          `json:"payment_method"`
	Quantity        int             `json:"quantity"`
	PricePerUnit    decimal.Decimal `json:"price_per_unit"`
	TotalSpent      decimal.Decimal `json:"total_spent"`
	TransactionDate time.Time       `json:"transaction_date"`
	Year            int             `json:"year"`
	MonthName       string          `json:"month_name"`
	Day             int             `json:"day"`
}

// ConsistentTotal reports whether TotalSpent equals Quantity x PricePerUnit to the cent.
func (t Transaction) ConsistentTotal() bool {
	expected := t.PricePerUnit.Mul(decimal.NewFromInt(int64(t.Quantity))).Round(2)
	return expected.Equal(t.TotalSpent.Round(2))
}

type KPIs struct {
	TotalSales         decimal.Decimal `json:"total_sales"`
	AverageTransaction decimal.Decimal `json:"average_transaction"`
	UniqueItems        int             `json:"unique_items"`
	TopSellingItem     string          `json:"top_selling_item"`
	RowCount           int             `json:"row_count"`
}

// Options lists the distinct values offered by each filter control.
type Options struct {
	Items          []string `json:"items"`
	Locations      []string `json:"locations"`
	PaymentMethods []string `json:"payment_methods"`
}

type NumericSummary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	P25    float64 `json:"p25"`
	P50    float64 `json:"p50"`
	P75    float64 `json:"p75"`
	Max    float64 `json:"max"`
}

type CategoricalSummary struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
	Unique int    `json:"unique"`
	Top    string `json:"top"`
	Freq   int    `json:"freq"`
}
