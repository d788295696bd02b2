package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/typetrace/typetrace/pkg/models"
)

// Format is an export output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name from a flag.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatCSV, FormatYAML:
		return Format(s), nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (json, csv, yaml)", s)
	}
}

// Document is the top-level shape of a JSON or YAML export.
type Document struct {
	ExportedAt time.Time                `json:"exported_at" yaml:"exported_at"`
	Range      string                   `json:"range" yaml:"range"`
	Stats      *models.AggregatedStats  `json:"stats" yaml:"stats"`
	Records    []models.KeystrokeRecord `json:"records" yaml:"records"`
}

// Write renders the document to w in the given format.
func Write(w io.Writer, format Format, doc *Document) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(doc)
	case FormatCSV:
		return writeCSV(w, doc.Records)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

func writeCSV(w io.Writer, records []models.KeystrokeRecord) error {
	cw := csv.NewWriter(w)
	header := []string{
		"timestamp", "app_name", "app_class",
		"char_count", "word_count", "paragraph_count", "backspace_count",
		"browser_domain", "browser_url",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Timestamp.Format(time.RFC3339),
			r.AppName,
			r.AppClass,
			strconv.FormatInt(r.CharCount, 10),
			strconv.FormatInt(r.WordCount, 10),
			strconv.FormatInt(r.ParagraphCount, 10),
			strconv.FormatInt(r.BackspaceCount, 10),
			r.BrowserDomain,
			r.BrowserURL,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
