// Package excel renders classification exports as xlsx workbooks with one
// sheet for the records and one for the aggregated statistics.
package excel

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/papaclick/papaclick-engine/internal/core/domain"
)

const contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	sheetClassifications = "Classifications"
	sheetStatistics      = "Statistics"
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) Render(ctx context.Context, items []domain.Classification, stats *domain.Statistics) (*domain.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file := excelize.NewFile()
	defer file.Close()

	if err := r.writeClassifications(file, items); err != nil {
		return nil, err
	}
	if err := r.writeStatistics(file, stats); err != nil {
		return nil, err
	}

	// The default sheet excelize creates is replaced by our first sheet.
	if index, err := file.GetSheetIndex(sheetClassifications); err == nil {
		file.SetActiveSheet(index)
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	return &domain.Report{
		Filename:    fmt.Sprintf("papaclick-classifications-%s.xlsx", time.Now().UTC().Format("20060102-150405")),
		ContentType: contentTypeXLSX,
		Content:     buf.Bytes(),
	}, nil
}

func (r *Renderer) writeClassifications(file *excelize.File, items []domain.Classification) error {
	defaultSheet := file.GetSheetName(0)
	if err := file.SetSheetName(defaultSheet, sheetClassifications); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := []any{
		"ID", "Submitter", "Variety", "Confidence", "Condition", "State",
		"Classified At", "Validated By", "Validated At", "Notes",
	}
	if err := file.SetSheetRow(sheetClassifications, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, item := range items {
		validatedAt := ""
		if item.ValidatedAt != nil {
			validatedAt = item.ValidatedAt.UTC().Format(time.RFC3339)
		}
		row := []any{
			item.ID, item.SubmitterID, item.PredictedVariety, item.Confidence,
			string(item.Condition), string(item.State),
			item.ClassifiedAt.UTC().Format(time.RFC3339),
			item.ValidatedBy, validatedAt, item.ValidationNotes,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := file.SetSheetRow(sheetClassifications, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return nil
}

func (r *Renderer) writeStatistics(file *excelize.File, stats *domain.Statistics) error {
	if _, err := file.NewSheet(sheetStatistics); err != nil {
		return fmt.Errorf("create statistics sheet: %w", err)
	}
	if stats == nil {
		stats = &domain.Statistics{}
	}

	rows := [][]any{
		{"Metric", "Value"},
		{"Total classifications", stats.TotalCount},
		{"Mean confidence", stats.Confidence.Mean},
		{"Max confidence", stats.Confidence.Max},
		{"Min confidence", stats.Confidence.Min},
		{"High confidence count", stats.Confidence.HighCount},
		{"Medium confidence count", stats.Confidence.MediumCount},
		{"Low confidence count", stats.Confidence.LowCount},
		{},
		{"Variety", "Count", "Mean confidence"},
	}
	for _, g := range stats.ByVariety {
		rows = append(rows, []any{g.Variety, g.Count, g.MeanConfidence})
	}
	rows = append(rows, []any{}, []any{"Condition", "Count", "Mean confidence"})
	for _, g := range stats.ByCondition {
		rows = append(rows, []any{string(g.Condition), g.Count, g.MeanConfidence})
	}

	for i := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := file.SetSheetRow(sheetStatistics, cell, &rows[i]); err != nil {
			return fmt.Errorf("write statistics row %d: %w", i+1, err)
		}
	}
	return nil
}
