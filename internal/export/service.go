package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/partsynth/internal/entity"
)

// SheetParts is the worksheet holding one row per record.
const SheetParts = "Parts"

// Service renders generated part records as spreadsheets.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

var partColumns = []struct {
	header string
	width  float64
	value  func(r entity.PartRecord) any
}{
	{"Part Number", 18, func(r entity.PartRecord) any { return r.PartNumber }},
	{"Product Name", 32, func(r entity.PartRecord) any { return r.ProductName }},
	{"Common Name (EN)", 22, func(r entity.PartRecord) any { return r.CommonNameEN }},
	{"Common Name (TH)", 22, func(r entity.PartRecord) any { return r.CommonNameTH }},
	{"UOM", 8, func(r entity.PartRecord) any { return r.UOM }},
	{"Material (EN)", 32, func(r entity.PartRecord) any { return r.MaterialEN }},
	{"Material (TH)", 32, func(r entity.PartRecord) any { return r.MaterialTH }},
	{"Function (EN)", 40, func(r entity.PartRecord) any { return r.FunctionEN }},
	{"Function (TH)", 40, func(r entity.PartRecord) any { return r.FunctionTH }},
	{"Where Used (EN)", 32, func(r entity.PartRecord) any { return r.WhereUsedEN }},
	{"Where Used (TH)", 32, func(r entity.PartRecord) any { return r.WhereUsedTH }},
	{"Capacity / Machine / Year", 16, func(r entity.PartRecord) any { return r.EstimatedCapacity }},
	{"Quantity To Use", 14, func(r entity.PartRecord) any { return r.QuantityToUse }},
	{"ECCN", 10, func(r entity.PartRecord) any { return r.ECCN }},
	{"HTS", 12, func(r entity.PartRecord) any { return r.HTS }},
	{"COO", 12, func(r entity.PartRecord) any { return r.COO }},
	{"Tags", 28, func(r entity.PartRecord) any { return strings.Join(r.Tags, ", ") }},
	{"Sources", 48, func(r entity.PartRecord) any { return joinSources(r.Sources) }},
	{"Image", 48, func(r entity.PartRecord) any { return firstOr(r.Images, "") }},
	{"Source Confidence", 16, func(r entity.PartRecord) any { return string(r.SourceConfidence) }},
	{"Total Tokens", 12, func(r entity.PartRecord) any {
		if r.Tokens == nil {
			return ""
		}
		return r.Tokens.Total
	}},
}

// RecordsXLSX returns a workbook (as bytes) with a header row and one row per record, in input order.
func (s *Service) RecordsXLSX(records []entity.PartRecord) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetParts); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	idx, err := f.GetSheetIndex(SheetParts)
	if err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	f.SetActiveSheet(idx)

	for i, c := range partColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetParts, cell, c.header)
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(SheetParts, col, col, c.width)
	}

	for n, r := range records {
		row := n + 2
		for i, c := range partColumns {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			v := c.value(r)
			if str, ok := v.(string); ok {
				v = truncate(str, 1000)
			}
			if err := f.SetCellValue(SheetParts, cell, v); err != nil {
				return nil, fmt.Errorf("xlsx cell %s: %w", cell, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func joinSources(refs []entity.SourceRef) string {
	out := make([]string, 0, len(refs))
	for _, s := range refs {
		if s.URL != "" {
			out = append(out, s.Name+" ("+s.URL+")")
		} else {
			out = append(out, s.Name)
		}
	}
	return strings.Join(out, "; ")
}

func firstOr(list []string, def string) string {
	if len(list) == 0 {
		return def
	}
	return list[0]
}

// truncate cuts s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
