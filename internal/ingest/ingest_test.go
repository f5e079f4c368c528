package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/merchant-ops/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func createTestXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			row.AddCell().SetString(cellData)
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestLoadProducts_CSV(t *testing.T) {
	path := writeFile(t, "products.csv", "id,name,price,cost,category\n"+
		"P001, Widget ,100,60,tools\n"+
		"P002,Gadget,\"$1,200.50\",,\n")

	products, err := LoadProducts(path, Options{})
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "P001", products[0].ID)
	assert.Equal(t, "Widget", products[0].Name)
	assert.Equal(t, 100.0, products[0].Price)
	require.NotNil(t, products[0].Cost)
	assert.Equal(t, 60.0, *products[0].Cost)
	assert.Equal(t, "tools", products[0].Category)

	assert.Equal(t, 1200.5, products[1].Price)
	assert.Nil(t, products[1].Cost)
	assert.Equal(t, 600.25, products[1].CostOrDefault())
}

func TestLoadProducts_EmptyPriceIsZero(t *testing.T) {
	path := writeFile(t, "products.csv", "id,name,price\nP001,Widget,\n")

	products, err := LoadProducts(path, Options{})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 0.0, products[0].Price)
}

func TestLoadProducts_RaggedRows(t *testing.T) {
	path := writeFile(t, "products.csv", "id,name,price,cost\nP001,Widget,10\n")

	products, err := LoadProducts(path, Options{})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Nil(t, products[0].Cost)
}

func TestLoadProducts_InvalidNumber(t *testing.T) {
	path := writeFile(t, "products.csv", "id,name,price\nP001,Widget,cheap\n")

	_, err := LoadProducts(path, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode row 2")
}

func TestLoadProducts_HeaderOnly(t *testing.T) {
	path := writeFile(t, "products.csv", "id,name,price\n")

	products, err := LoadProducts(path, Options{})
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestLoadProducts_EmptyFile(t *testing.T) {
	path := writeFile(t, "products.csv", "")

	products, err := LoadProducts(path, Options{})
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestLoadProducts_XLSX(t *testing.T) {
	path := createTestXLSX(t, [][]string{
		{"id", "name", "price", "cost"},
		{"P001", "Widget", "80", "50"},
		{"P002", "Gadget", "40"},
		{"", "", "", ""},
	})

	products, err := LoadProducts(path, Options{})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, 80.0, products[0].Price)
	require.NotNil(t, products[0].Cost)
	assert.Equal(t, 50.0, *products[0].Cost)
	assert.Nil(t, products[1].Cost)
}

func TestLoadProducts_JSON(t *testing.T) {
	path := writeFile(t, "products.json", `[{"id":"P001","name":"Widget","price":100,"cost":50}]`)

	products, err := LoadProducts(path, Options{})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Widget", products[0].Name)
}

func TestLoadMessages_Charset(t *testing.T) {
	path := writeFile(t, "messages.csv", "id,message\nM001,caf\xe9 arrived cold\n")

	msgs, err := LoadMessages(path, Options{Charset: "windows-1252"})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "café arrived cold", msgs[0].Message)
}

func TestLoadMessages_UnknownCharset(t *testing.T) {
	path := writeFile(t, "messages.csv", "id,message\nM001,hi\n")

	_, err := LoadMessages(path, Options{Charset: "klingon-8"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported charset")
}

func TestLoadPricingContext_TSV(t *testing.T) {
	path := writeFile(t, "pricing.tsv", "product_id\tcompetitor_price\tmarket_trend\nP001\t85\tdown\n")

	ctx, err := LoadPricingContext(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, []model.PricingContext{{ProductID: "P001", CompetitorPrice: 85, MarketTrend: "down"}}, ctx)
}

func TestLoad_Errors(t *testing.T) {
	_, err := LoadProducts(filepath.Join(t.TempDir(), "missing.csv"), Options{})
	assert.Error(t, err)

	path := writeFile(t, "products.txt", "id\n")
	_, err = LoadProducts(path, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestBound(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{1, 2, 3}, Bound(items, 3))
	assert.Equal(t, items, Bound(items, 10))
	assert.Equal(t, items, Bound(items, 0))
	assert.Nil(t, Bound([]int(nil), 3))
}

func TestDefaultLimits(t *testing.T) {
	assert.Equal(t, Limits{Products: 10, Messages: 20, PricingContext: 5}, DefaultLimits())
}
