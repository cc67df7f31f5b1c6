package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-catalog-service/internal/catalog"
	"storefront-catalog-service/internal/domain"
)

func TestPrintJSONSummary(t *testing.T) {
	report := &catalog.Report{
		RunID:     "3b2c1a90-0000-0000-0000-000000000000",
		Products:  []domain.Product{{ID: 1, Name: "Astral Gold Pen"}},
		PerSource: map[string]int{"pens.json": 1, "bad.json": 0},
		Errors:    []catalog.SourceError{{Source: "bad.json", Err: errors.New("no such file")}},
		Duration:  125 * time.Millisecond,
	}

	var buf bytes.Buffer
	require.NoError(t, printJSONSummary(&buf, report))

	var got runSummary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, report.RunID, got.RunID)
	assert.Equal(t, 1, got.Products)
	assert.Equal(t, 1, got.Sources["pens.json"])
	require.Len(t, got.Errors, 1)
	assert.Contains(t, got.Errors[0], "bad.json")
	assert.Equal(t, "125ms", got.Duration)

	// -pretty output is indented
	assert.Contains(t, buf.String(), "\n  \"run_id\"")
}
