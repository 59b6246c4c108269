// Package sample writes synthetic café sales CSVs in the layout the dataset loader reads.
package sample

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"

	"cafe-dashboard/internal/dataset"
)

// Menu maps each café item to its unit price.
var Menu = map[string]decimal.Decimal{
	"Cake":     decimal.RequireFromString("3.0"),
	"Coffee":   decimal.RequireFromString("2.0"),
	"Cookie":   decimal.RequireFromString("1.0"),
	"Juice":    decimal.RequireFromString("3.0"),
	"Salad":    decimal.RequireFromString("5.0"),
	"Sandwich": decimal.RequireFromString("4.0"),
	"Smoothie": decimal.RequireFromString("4.0"),
	"Tea":      decimal.RequireFromString("1.5"),
}

var (
	menuItems      = []string{"Cake", "Coffee", "Cookie", "Juice", "Salad", "Sandwich", "Smoothie", "Tea"}
	locations      = []string{"In-store", "Takeaway"}
	paymentMethods = []string{"Cash", "Credit Card", "Digital Wallet"}
)

var header = append([]string{"Transaction ID"}, dataset.RequiredColumns...)

type Options struct {
	Rows int
	Seed uint64
	From time.Time
	To   time.Time
}

func (o Options) withDefaults() Options {
	if o.From.IsZero() {
		o.From = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if o.To.IsZero() {
		o.To = time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	return o
}

// Write emits a header and opts.Rows generated transactions to w.
func Write(w io.Writer, opts Options) error {
	if opts.Rows < 0 {
		return fmt.Errorf("rows must not be negative, got %d", opts.Rows)
	}
	opts = opts.withDefaults()
	if opts.To.Before(opts.From) {
		return fmt.Errorf("date range end %s is before start %s", opts.To.Format(time.DateOnly), opts.From.Format(time.DateOnly))
	}

	faker := gofakeit.New(opts.Seed)
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := 0; i < opts.Rows; i++ {
		item := faker.RandomString(menuItems)
		price := Menu[item]
		qty := faker.IntRange(1, 5)
		date := faker.DateRange(opts.From, opts.To).UTC().Truncate(24 * time.Hour)

		record := []string{
			fmt.Sprintf("TXN_%07d", faker.IntRange(1000000, 9999999)),
			item,
			faker.RandomString(locations),
			faker.RandomString(paymentMethods),
			strconv.Itoa(qty),
			price.StringFixed(1),
			price.Mul(decimal.NewFromInt(int64(qty))).StringFixed(1),
			date.Format(time.DateOnly),
			strconv.Itoa(date.Year()),
			date.Month().String(),
			strconv.Itoa(date.Day()),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes a generated CSV to path, replacing any existing file.
func WriteFile(path string, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
