// =============================================================================
// VDA Delivery Call-Off Decoder - XLSX Writer
// =============================================================================
//
// This module renders a decoded delivery call-off as an Excel workbook for
// planners who work in spreadsheets.
//
// WORKBOOK STRUCTURE:
//
//   Sheet "Lieferabruf" - header fields, one per row
//   | Feld            | Wert       |
//   |-----------------|------------|
//   | Kunde           | KUNDE0001  |
//   | Lieferant       | LIEF00042  |
//   | ...             |            |
//
//   Sheet "Abrufe" - one call-off per row, in document order
//   | Nr | Datum  | Menge |
//   |----|--------|-------|
//   | 1  | 240201 | 100   |
//
//   Sheet "Schedules" - only written when the document carried more than
//   one Satz512
//   | Zeile | Werk | Abruf neu | Abruf alt | Sachnummer | Abladestelle | ME |
//
// =============================================================================

package xlsxwriter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/vda-lieferabruf/internal/types"
)

// Sheet names.
const (
	SheetHeader    = "Lieferabruf"
	SheetAbrufe    = "Abrufe"
	SheetSchedules = "Schedules"
)

// =============================================================================
// WRITE FUNCTIONS
// =============================================================================

// SaveAs writes the workbook to a file.
func SaveAs(v *types.Vda, path string) error {
	f, err := Build(v)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// Write writes the workbook to w.
func Write(w io.Writer, v *types.Vda) error {
	f, err := Build(v)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Build creates the workbook in memory. The caller must Close it.
func Build(v *types.Vda) (*excelize.File, error) {
	if v == nil {
		return nil, fmt.Errorf("no document to write")
	}

	f := excelize.NewFile()

	// The default sheet becomes the header sheet.
	if err := f.SetSheetName(f.GetSheetName(0), SheetHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	steps := []func(*excelize.File, *types.Vda, int) error{
		writeHeaderSheet,
		writeAbrufeSheet,
		writeSchedulesSheet,
	}
	for _, step := range steps {
		if err := step(f, v, bold); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

// =============================================================================
// SHEETS
// =============================================================================

// writeHeaderSheet writes the root fields as key/value rows.
func writeHeaderSheet(f *excelize.File, v *types.Vda, bold int) error {
	rows := [][]any{
		{"Feld", "Wert"},
		{"Kunde", v.Kunde},
		{"Lieferant", v.Lieferant},
		{"Werk", v.Werk},
		{"Abladestelle", v.Abladestelle},
		{"Lieferabruf alt", v.LieferabrufAlt},
		{"Lieferabruf neu", v.LieferabrufNeu},
		{"Sachnummer", v.Sachnummer},
		{"Mengeneinheit", v.Mengeneinheit},
		{"Abrufe", len(v.Abrufe)},
		{"Weitere Schedules", len(v.AdditionalSchedules)},
	}
	if err := writeRows(f, SheetHeader, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetHeader, "A1", "B1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	return f.SetColWidth(SheetHeader, "A", "B", 24)
}

// writeAbrufeSheet writes one row per call-off.
func writeAbrufeSheet(f *excelize.File, v *types.Vda, bold int) error {
	if _, err := f.NewSheet(SheetAbrufe); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", SheetAbrufe, err)
	}

	rows := make([][]any, 0, len(v.Abrufe)+1)
	rows = append(rows, []any{"Nr", "Datum", "Menge"})
	for i, a := range v.Abrufe {
		rows = append(rows, []any{i + 1, fmt.Sprintf("%06d", a.Date), a.Amount})
	}
	if err := writeRows(f, SheetAbrufe, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetAbrufe, "A1", "C1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	return nil
}

// writeSchedulesSheet lists the schedules that were not merged into the
// root fields. Nothing is written for single-schedule documents.
func writeSchedulesSheet(f *excelize.File, v *types.Vda, bold int) error {
	if !v.MultiSchedule() {
		return nil
	}
	if _, err := f.NewSheet(SheetSchedules); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", SheetSchedules, err)
	}

	rows := [][]any{{"Zeile", "Werk", "Abruf neu", "Abruf alt", "Sachnummer", "Abladestelle", "ME"}}
	for _, s := range v.AdditionalSchedules {
		rows = append(rows, []any{s.Line, s.Werk, s.LieferabrufNeu, s.LieferabrufAlt, s.Sachnummer, s.Abladestelle, s.Mengeneinheit})
	}
	if err := writeRows(f, SheetSchedules, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetSchedules, "A1", "G1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	return nil
}

// writeRows writes rows starting at A1.
func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, sheet, err)
		}
	}
	return nil
}
