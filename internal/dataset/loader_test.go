package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "Transaction ID,Item,Quantity,Price Per Unit,Total Spent,Payment Method,Location,Transaction Date,Year,Month Name,Day"

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ValidFile(t *testing.T) {
	content := header + `
TXN_1,Coffee,2,2.0,4.0,Credit Card,Takeaway,2023-09-08,2023,September,8
TXN_2,Cake,4,3.0,12.0,Cash,In-store,2023-05-16,2023,May,16
TXN_3,Cookie,4.0,1.0,4.0,Digital Wallet,In-store,2023-07-19,2023.0,July,19.0`

	table, err := Load(context.Background(), writeCSV(t, content))
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())
	assert.Equal(t, 0, table.Skipped())

	first := table.Row(0)
	assert.Equal(t, "TXN_1", first.TransactionID)
	assert.Equal(t, "Coffee", first.Item)
	assert.Equal(t, "Takeaway", first.Location)
	assert.Equal(t, "Credit Card", first.PaymentMethod)
	assert.Equal(t, 2, first.Quantity)
	assert.Equal(t, "4", first.TotalSpent.String())
	assert.Equal(t, time.Date(2023, 9, 8, 0, 0, 0, 0, time.UTC), first.TransactionDate)
	assert.Equal(t, 2023, first.Year)
	assert.Equal(t, "September", first.MonthName)
	assert.Equal(t, 8, first.Day)

	third := table.Row(2)
	assert.Equal(t, 4, third.Quantity)
	assert.Equal(t, 2023, third.Year)
	assert.Equal(t, 19, third.Day)
}

func TestLoad_HeaderOnlyYieldsEmptyTable(t *testing.T) {
	table, err := Load(context.Background(), writeCSV(t, header+"\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
	assert.Empty(t, table.Distinct(DimItem))
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  error
	}{
		{
			name:    "empty file",
			content: "",
			target:  ErrNoHeader,
		},
		{
			name:    "missing columns",
			content: "Item,Location,Quantity\nCoffee,Takeaway,1",
			target:  ErrMissingColumns,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCSV(t, tt.content)
			_, err := Load(context.Background(), path)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)

			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, path, loadErr.Path)
		})
	}
}

func TestLoad_MissingColumnsNamed(t *testing.T) {
	_, err := Load(context.Background(), writeCSV(t, "Item,Location\nCoffee,Takeaway"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Payment Method")
	assert.Contains(t, err.Error(), "Total Spent")
	assert.NotContains(t, err.Error(), "Item,")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "open", loadErr.Op)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_MalformedQuoting(t *testing.T) {
	content := header + "\nTXN_1,\"Coffee,2,2.0,4.0,Cash,Takeaway,2023-09-08,2023,September,8\n"
	_, err := Load(context.Background(), writeCSV(t, content))
	require.Error(t, err)

	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestLoad_SkipsUnparseableRows(t *testing.T) {
	content := header + `
TXN_1,Coffee,2,2.0,4.0,Cash,Takeaway,2023-09-08,2023,September,8
TXN_2,Tea,two,1.5,3.0,Cash,Takeaway,2023-09-08,2023,September,8
TXN_3,Tea,2,-1.5,3.0,Cash,Takeaway,2023-09-08,2023,September,8
TXN_4,Tea,2,1.5,3.0,Cash,Takeaway,not-a-date,2023,September,8
TXN_5,,2,1.5,3.0,Cash,Takeaway,2023-09-08,2023,September,8
TXN_6,Tea,2.5,1.5,3.0,Cash,Takeaway,2023-09-08,2023,September,8
TXN_7,Salad,1,5.0,5.0,Cash,In-store,2023-01-02,2023,January,2`

	table, err := Load(context.Background(), writeCSV(t, content))
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, 5, table.Skipped())
	assert.Equal(t, "Coffee", table.Row(0).Item)
	assert.Equal(t, "Salad", table.Row(1).Item)
}

func TestLoad_DerivesBlankDateParts(t *testing.T) {
	content := header + "\nTXN_1,Juice,1,3.0,3.0,Cash,Takeaway,2023-03-14,,,\n"
	table, err := Load(context.Background(), writeCSV(t, content))
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	tx := table.Row(0)
	assert.Equal(t, 2023, tx.Year)
	assert.Equal(t, "March", tx.MonthName)
	assert.Equal(t, 14, tx.Day)
}

func TestLoad_PreservesOrderAcrossBatches(t *testing.T) {
	var b strings.Builder
	b.WriteString(header)
	n := batchSize*2 + 17
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "\nTXN_%d,Item%04d,1,1.0,1.0,Cash,Takeaway,2023-01-01,2023,January,1", i, i)
	}

	table, err := Load(context.Background(), writeCSV(t, b.String()))
	require.NoError(t, err)
	require.Equal(t, n, table.Len())
	for i := 0; i < n; i++ {
		require.Equal(t, fmt.Sprintf("Item%04d", i), table.Row(i).Item)
	}
}

func TestRead_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	content := header + "\nTXN_1,Coffee,2,2.0,4.0,Cash,Takeaway,2023-09-08,2023,September,8"
	_, err := Read(ctx, strings.NewReader(content))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRead_IgnoresExtraColumnsAndBOM(t *testing.T) {
	content := "\ufeffItem,Location,Payment Method,Quantity,Price Per Unit,Total Spent,Transaction Date,Year,Month Name,Day,Note\n" +
		"Tea,In-store,Cash,1,1.5,1.5,2023-02-01,2023,February,1,extra\n"

	table, err := Read(context.Background(), strings.NewReader(content))
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "Tea", table.Row(0).Item)
	assert.Empty(t, table.Row(0).TransactionID, "absent id column must not read another column")
}

func TestParseWhole(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"3", 3, false},
		{"3.0", 3, false},
		{"3.5", 0, true},
		{"", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseWhole(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
