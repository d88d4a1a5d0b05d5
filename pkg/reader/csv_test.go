package reader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/ecom-eda/pkg/model"
)

const sampleCSV = "\ufeffOrder_ID, product_id ,customer_id,category,region,payment_method,order_date,time,price,discount,quantity,notes\n" +
	"1,P1,C1,Books,North,Card,2024-03-15,10:00,12.50,1,2,gift\n" +
	"2,P2,C2,Toys,South,Cash,2024-03-16,,8,0,\n" +
	",,,,,,,,,,\n" +
	"3,P3,C3,\"Home, Garden\",East,Card,2024-03-17,11:30,20,2,1\n"

func TestReadCSV(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(sampleCSV), CSVOptions{})
	require.NoError(t, err)

	assert.Equal(t, "order_id", table.Columns[0])
	assert.Equal(t, "product_id", table.Columns[1])
	assert.True(t, table.HasColumn(model.ColQuantity))

	require.Len(t, table.Records, 3)
	first := table.Records[0]
	assert.Equal(t, 1, first.Line)
	assert.Equal(t, "1", first.OrderID)
	assert.Equal(t, "P1", first.ProductID)
	assert.Equal(t, "12.50", first.Price)
	assert.Equal(t, "10:00", first.Time)

	// empty trailing quantity
	assert.Equal(t, "", table.Records[1].Quantity)
	assert.Equal(t, "Home, Garden", table.Records[2].Category)
	assert.Equal(t, 3, table.Records[2].Line)
}

func TestReadCSVMaxRowsAndDelimiter(t *testing.T) {
	data := "order_id;product_id;customer_id\n1;A;X\n2;B;Y\n3;C;Z\n"
	table, err := ReadCSV(strings.NewReader(data), CSVOptions{Delimiter: ';', MaxRows: 2})
	require.NoError(t, err)

	require.Len(t, table.Records, 2)
	assert.Equal(t, "B", table.Records[1].ProductID)
	assert.False(t, table.HasColumn(model.ColPrice))
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), CSVOptions{})
	assert.Error(t, err)
}

func TestReadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	table, err := ReadCSVFile(path, CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, "orders.csv", table.Source)
	assert.Len(t, table.Records, 3)

	_, err = ReadCSVFile(filepath.Join(t.TempDir(), "missing.csv"), CSVOptions{})
	assert.Error(t, err)
}
