// Package excel writes generated question sets to .xlsx workbooks.
package excel

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/medfellows/quizforge-api/internal/domain"
)

// ErrNoQuestions indicates an export was requested for an empty question set.
var ErrNoQuestions = errors.New("no questions to export")

// sheetName is the single worksheet all questions are written to.
const sheetName = "Questions"

var headerRow = []string{
	"Topic",
	"Question",
	"Option A",
	"Option B",
	"Option C",
	"Option D",
	"Answer",
	"Explanation",
}

// Exporter writes MCQ blocks to Excel files.
type Exporter struct{}

// NewExporter creates an Exporter.
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export writes every question from blocks into a single-sheet workbook at
// path, one row per question with the block topic repeated on each row.
func (e *Exporter) Export(blocks []domain.MCQBlock, path string) error {
	if domain.QuestionCount(blocks) == 0 {
		return ErrNoQuestions
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	if err := writeRow(f, 1, headerRow); err != nil {
		return err
	}

	row := 2
	for _, block := range blocks {
		for _, q := range block.Questions {
			cells := []string{
				block.Topic,
				q.Question,
				q.Options["A"],
				q.Options["B"],
				q.Options["C"],
				q.Options["D"],
				q.Answer,
				q.Explanation,
			}
			if err := writeRow(f, row, cells); err != nil {
				return err
			}
			row++
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, row int, cells []string) error {
	for col, value := range cells {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, value); err != nil {
			return fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
	}
	return nil
}
