// Package csvcodec serializes product and category lists to the canonical CSV
// layout used for on-disk output files and for snapshot persistence.
//
// Encoding always quotes every field and uses comma delimiters with "\n" line
// endings. Decoding is permissive: header order is inferred, fully empty lines
// are skipped, and a malformed row is dropped with a warning instead of
// aborting the whole parse.
package csvcodec

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"storefront-catalog-service/internal/domain"
)

// ProductHeader is the canonical field order for product CSV files.
var ProductHeader = []string{
	"id", "name", "category", "subcategory", "description", "price",
	"image_url", "in_stock", "created_at", "updated_at", "brand", "series",
	"material", "features", "specifications", "dimensions", "weight", "color",
	"model", "sku", "capacity", "variants",
}

// CategoryHeader is the canonical field order for the admin category list.
var CategoryHeader = []string{"id", "name", "description", "icon", "created_at", "updated_at"}

// Codec encodes and decodes the catalog CSV formats.
type Codec struct {
	logger *log.Logger
}

// New creates a Codec. A nil logger discards row-level warnings.
func New(logger *log.Logger) *Codec {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Codec{logger: logger}
}

// EncodeProducts renders the list in declared field order, header row first.
func (c *Codec) EncodeProducts(products []domain.Product) []byte {
	var buf bytes.Buffer
	writeRow(&buf, ProductHeader)
	for _, p := range products {
		writeRow(&buf, productRow(p))
	}
	return buf.Bytes()
}

// DecodeProducts parses a product CSV blob. Only a missing or unreadable
// header row is an error; bad data rows are dropped with a warning.
func (c *Codec) DecodeProducts(data []byte) ([]domain.Product, error) {
	rows, index, err := c.readAll(data)
	if err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(rows))
	for i, row := range rows {
		p, err := decodeProductRow(row, index)
		if err != nil {
			c.logger.Printf("WARN: csvcodec: dropping product row %d: %v", i+2, err)
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

// EncodeCategories renders the admin category list.
func (c *Codec) EncodeCategories(categories []domain.Category) []byte {
	var buf bytes.Buffer
	writeRow(&buf, CategoryHeader)
	for _, cat := range categories {
		writeRow(&buf, []string{
			strconv.Itoa(cat.ID), cat.Name, cat.Description, cat.Icon,
			formatTime(cat.CreatedAt), formatTime(cat.UpdatedAt),
		})
	}
	return buf.Bytes()
}

// DecodeCategories parses the admin category CSV blob.
func (c *Codec) DecodeCategories(data []byte) ([]domain.Category, error) {
	rows, index, err := c.readAll(data)
	if err != nil {
		return nil, err
	}
	categories := make([]domain.Category, 0, len(rows))
	for i, row := range rows {
		get := fieldGetter(row, index)
		id, err := strconv.Atoi(strings.TrimSpace(get("id")))
		if err != nil {
			c.logger.Printf("WARN: csvcodec: dropping category row %d: bad id %q", i+2, get("id"))
			continue
		}
		categories = append(categories, domain.Category{
			ID:          id,
			Name:        get("name"),
			Description: get("description"),
			Icon:        get("icon"),
			CreatedAt:   parseTime(get("created_at")),
			UpdatedAt:   parseTime(get("updated_at")),
		})
	}
	return categories, nil
}

// readAll parses the CSV body and returns the data rows plus a header-name ->
// column-index map.
func (c *Codec) readAll(data []byte) ([][]string, map[string]int, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, fmt.Errorf("csvcodec: empty input")
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("csvcodec: read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var rows [][]string
	line := 1
	for {
		row, err := r.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			c.logger.Printf("WARN: csvcodec: dropping unreadable row %d: %v", line, err)
			continue
		}
		if allEmpty(row) {
			continue
		}
		rows = append(rows, row)
	}
	return rows, index, nil
}

func productRow(p domain.Product) []string {
	price := ""
	if p.Price != nil {
		price = strconv.FormatFloat(*p.Price, 'g', -1, 64)
	}
	return []string{
		strconv.Itoa(p.ID), p.Name, p.Category, p.Subcategory, p.Description,
		price, p.ImageURL, strconv.FormatBool(p.InStock),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
		p.Brand, p.Series, p.Material, p.Features, p.Specifications,
		p.Dimensions, p.Weight, p.Color, p.Model, p.SKU, p.Capacity, p.Variants,
	}
}

func decodeProductRow(row []string, index map[string]int) (domain.Product, error) {
	get := fieldGetter(row, index)

	id, err := strconv.Atoi(strings.TrimSpace(get("id")))
	if err != nil {
		return domain.Product{}, fmt.Errorf("bad id %q", get("id"))
	}
	name := get("name")
	if name == "" {
		return domain.Product{}, fmt.Errorf("empty name for id %d", id)
	}

	var price *float64
	if s := strings.TrimSpace(get("price")); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return domain.Product{}, fmt.Errorf("bad price %q", s)
		}
		price = &f
	}

	inStock := true
	if s := strings.TrimSpace(get("in_stock")); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			inStock = b
		}
	}

	return domain.Product{
		ID:             id,
		Name:           name,
		Category:       get("category"),
		Subcategory:    get("subcategory"),
		Description:    get("description"),
		Price:          price,
		ImageURL:       get("image_url"),
		InStock:        inStock,
		CreatedAt:      parseTime(get("created_at")),
		UpdatedAt:      parseTime(get("updated_at")),
		Brand:          get("brand"),
		Series:         get("series"),
		Material:       get("material"),
		Features:       get("features"),
		Specifications: get("specifications"),
		Dimensions:     get("dimensions"),
		Weight:         get("weight"),
		Color:          get("color"),
		Model:          get("model"),
		SKU:            get("sku"),
		Capacity:       get("capacity"),
		Variants:       get("variants"),
	}, nil
}

// fieldGetter returns fields exactly as quoted; since the encoder quotes every
// field, whitespace is content. Typed parses trim at the call site.
func fieldGetter(row []string, index map[string]int) func(string) string {
	return func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
}

// writeRow quotes every field unconditionally, which encoding/csv does not
// offer, and terminates the line with "\n".
func writeRow(buf *bytes.Buffer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(f, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}

func allEmpty(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
