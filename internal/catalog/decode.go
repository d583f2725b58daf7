package catalog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/routine-advisor/advisor/internal/models"
)

// Supported catalog formats
const (
	FormatJSON    = "json"
	FormatJSONL   = "jsonl"
	FormatParquet = "parquet"
	FormatYAML    = "yaml"
)

// ErrUnsupportedFormat is returned when a catalog source has no known format
var ErrUnsupportedFormat = errors.New("unsupported catalog format")

// DetectFormat picks a format from the source extension, falling back to the
// content type reported by a remote source.
func DetectFormat(source, contentType string) (string, error) {
	src := source
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	switch strings.ToLower(path.Ext(src)) {
	case ".json":
		return FormatJSON, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	case ".parquet":
		return FormatParquet, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}

	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			switch {
			case mt == "application/x-ndjson" || mt == "application/jsonl":
				return FormatJSONL, nil
			case mt == "application/json" || strings.HasSuffix(mt, "+json"):
				return FormatJSON, nil
			case strings.Contains(mt, "yaml"):
				return FormatYAML, nil
			case strings.Contains(mt, "parquet"):
				return FormatParquet, nil
			}
		}
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, source)
}

// Decode parses catalog data in the given format
func Decode(format string, data []byte) ([]models.Product, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(data)
	case FormatJSONL:
		return decodeJSONL(data)
	case FormatParquet:
		return decodeParquet(data)
	case FormatYAML:
		return decodeYAML(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func decodeJSON(data []byte) ([]models.Product, error) {
	var doc struct {
		Products []models.Product `json:"products"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog JSON: %w", err)
	}
	return doc.Products, nil
}

func decodeJSONL(data []byte) ([]models.Product, error) {
	var products []models.Product
	scanner := bufio.NewScanner(bytes.NewReader(data))

	// Allow long description lines
	const maxCapacity = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var p models.Product
		if err := json.Unmarshal(line, &p); err != nil {
			return nil, fmt.Errorf("failed to parse catalog JSON at line %d: %w", lineNum, err)
		}
		products = append(products, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading catalog: %w", err)
	}
	return products, nil
}

func decodeYAML(data []byte) ([]models.Product, error) {
	var doc struct {
		Products []models.Product `yaml:"products"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog YAML: %w", err)
	}
	return doc.Products, nil
}

// productRow is the parquet column layout of a catalog file
type productRow struct {
	ID          string `parquet:"id"`
	Name        string `parquet:"name"`
	Brand       string `parquet:"brand"`
	Category    string `parquet:"category"`
	Description string `parquet:"description"`
	Image       string `parquet:"image"`
}

func decodeParquet(data []byte) ([]models.Product, error) {
	pf, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet catalog opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[productRow](pf)
	defer reader.Close()

	products := make([]models.Product, 0, pf.NumRows())
	rows := make([]productRow, 128)
	for {
		n, err := reader.Read(rows)
		for _, row := range rows[:n] {
			products = append(products, models.Product{
				ID:          models.ProductID(strings.TrimSpace(row.ID)),
				Name:        row.Name,
				Brand:       row.Brand,
				Category:    row.Category,
				Description: row.Description,
				Image:       row.Image,
			})
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	return products, nil
}
