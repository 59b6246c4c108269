package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"cafe-dashboard/internal/models"
)

const (
	ColTransactionID   = "Transaction ID"
	ColItem            = "Item"
	ColLocation        = "Location"
	ColPaymentMethod   = "Payment Method"
	ColQuantity        = "Quantity"
	ColPricePerUnit    = "Price Per Unit"
	ColTotalSpent      = "Total Spent"
	ColTransactionDate = "Transaction Date"
	ColYear            = "Year"
	ColMonthName       = "Month Name"
	ColDay             = "Day"
)

const (
	batchSize  = 1000
	maxWorkers = 8
)

// RequiredColumns lists the header names a sales CSV must carry.
var RequiredColumns = []string{
	ColItem,
	ColLocation,
	ColPaymentMethod,
	ColQuantity,
	ColPricePerUnit,
	ColTotalSpent,
	ColTransactionDate,
	ColYear,
	ColMonthName,
	ColDay,
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

type columnIndex map[string]int

// Load reads the CSV at path into a Table. The file is closed before Load returns.
func Load(ctx context.Context, path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Op: "open", Err: err}
	}
	defer file.Close()

	table, err := read(ctx, file)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			loadErr.Path = path
		}
		return nil, err
	}
	return table, nil
}

// Read parses a sales CSV from r.
func Read(ctx context.Context, r io.Reader) (*Table, error) {
	return read(ctx, r)
}

func read(ctx context.Context, r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &LoadError{Op: "header", Err: ErrNoHeader}
	}
	if err != nil {
		return nil, &LoadError{Op: "header", Err: err}
	}

	columns, err := indexColumns(header)
	if err != nil {
		return nil, &LoadError{Op: "header", Err: err}
	}

	table := &Table{rows: make([]models.Transaction, 0)}
	batch := make([][]string, 0, batchSize)
	line := 1

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &LoadError{Op: fmt.Sprintf("line %d", line), Err: err}
		}

		batch = append(batch, record)
		if len(batch) >= batchSize {
			if err := parseBatch(ctx, batch, columns, table); err != nil {
				return nil, err
			}
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := parseBatch(ctx, batch, columns, table); err != nil {
			return nil, err
		}
	}

	if table.skipped > 0 {
		slog.Warn("skipped unparseable rows", "skipped", table.skipped, "loaded", len(table.rows))
	}

	return table, nil
}

func indexColumns(header []string) (columnIndex, error) {
	columns := make(columnIndex, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}

	var missing []string
	for _, name := range RequiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return columns, nil
}

// parseBatch parses records concurrently and appends the valid ones to table in input order.
func parseBatch(ctx context.Context, batch [][]string, columns columnIndex, table *Table) error {
	type parsedRow struct {
		tx    models.Transaction
		valid bool
	}

	parsed := make([]parsedRow, len(batch))

	var g errgroup.Group
	g.SetLimit(maxWorkers)

	for i, record := range batch {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			tx, err := parseTransaction(record, columns)
			if err != nil {
				return nil // invalid rows are counted as skipped
			}
			parsed[i] = parsedRow{tx: tx, valid: true}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for _, p := range parsed {
		if !p.valid {
			table.skipped++
			continue
		}
		table.rows = append(table.rows, p.tx)
	}
	return nil
}

func parseTransaction(record []string, columns columnIndex) (models.Transaction, error) {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	tx := models.Transaction{
		TransactionID: field(ColTransactionID),
		Item:          field(ColItem),
		Location:      field(ColLocation),
		PaymentMethod: field(ColPaymentMethod),
		MonthName:     field(ColMonthName),
	}
	if tx.Item == "" || tx.Location == "" || tx.PaymentMethod == "" {
		return models.Transaction{}, errors.New("blank dimension value")
	}

	var err error
	if tx.Quantity, err = parseWhole(field(ColQuantity)); err != nil {
		return models.Transaction{}, fmt.Errorf("quantity: %w", err)
	}
	if tx.Quantity < 0 {
		return models.Transaction{}, errors.New("quantity: negative")
	}

	if tx.PricePerUnit, err = parseAmount(field(ColPricePerUnit)); err != nil {
		return models.Transaction{}, fmt.Errorf("price per unit: %w", err)
	}
	if tx.TotalSpent, err = parseAmount(field(ColTotalSpent)); err != nil {
		return models.Transaction{}, fmt.Errorf("total spent: %w", err)
	}

	if tx.TransactionDate, err = parseDate(field(ColTransactionDate)); err != nil {
		return models.Transaction{}, fmt.Errorf("transaction date: %w", err)
	}

	tx.Year = tx.TransactionDate.Year()
	if v := field(ColYear); v != "" {
		if tx.Year, err = parseWhole(v); err != nil {
			return models.Transaction{}, fmt.Errorf("year: %w", err)
		}
	}

	tx.Day = tx.TransactionDate.Day()
	if v := field(ColDay); v != "" {
		if tx.Day, err = parseWhole(v); err != nil {
			return models.Transaction{}, fmt.Errorf("day: %w", err)
		}
	}

	if tx.MonthName == "" {
		tx.MonthName = tx.TransactionDate.Month().String()
	}

	return tx, nil
}

// parseWhole accepts integers, including float spellings such as "2.0".
func parseWhole(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a whole number: %q", s)
	}
	return int(f), nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative amount %s", s)
	}
	return d, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
