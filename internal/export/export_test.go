package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/typetrace/typetrace/pkg/models"
)

func sampleDocument() *Document {
	ts := time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)
	return &Document{
		ExportedAt: ts,
		Range:      "today",
		Stats:      &models.AggregatedStats{TotalChars: 150, TotalWords: 30, NetChars: 150},
		Records: []models.KeystrokeRecord{
			{
				Timestamp:     ts,
				AppName:       "Editor",
				AppClass:      "editor",
				CharCount:     100,
				WordCount:     20,
				BrowserDomain: "",
			},
			{
				Timestamp:     ts.Add(time.Minute),
				AppName:       "Chrome",
				AppClass:      "google-chrome",
				CharCount:     50,
				WordCount:     10,
				BrowserDomain: "docs.test",
				BrowserURL:    "https://docs.test/page",
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"json", "csv", "yaml", "yml"} {
		_, err := ParseFormat(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestWriteJSONRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sampleDocument()))

	var decoded Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "today", decoded.Range)
	require.Len(t, decoded.Records, 2)
	assert.Equal(t, int64(100), decoded.Records[0].CharCount)
}

func TestWriteYAMLRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatYAML, sampleDocument()))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "today", decoded["range"])
}

func TestWriteCSVHasHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, sampleDocument()))

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "timestamp", rows[0][0])
	assert.Equal(t, "editor", rows[1][2])
	assert.Equal(t, "docs.test", rows[2][7])
}
