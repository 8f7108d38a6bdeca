package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"pipewiz/domain/run"
	"pipewiz/domain/training"
	"pipewiz/ports"
)

const (
	summarySheet   = "Summary"
	confusionSheet = "Confusion"
	perClassSheet  = "Per Class"
)

// ReportWriter exports interpreted training reports as XLSX workbooks
type ReportWriter struct{}

var _ ports.ReportWriter = (*ReportWriter)(nil)

// NewReportWriter creates a new XLSX report writer
func NewReportWriter() *ReportWriter {
	return &ReportWriter{}
}

// WriteReport writes a Summary sheet and, for classification, the confusion
// matrix and per-class sheets.
func (w *ReportWriter) WriteReport(path string, rec run.Record, rep *training.Report) error {
	if rep == nil {
		return fmt.Errorf("no report to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if err := writeSummary(f, rec, rep); err != nil {
		return err
	}
	if rep.Classification != nil {
		if err := writeConfusion(f, rep.Classification); err != nil {
			return err
		}
		if err := writePerClass(f, rep.Classification); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func writeSummary(f *excelize.File, rec run.Record, rep *training.Report) error {
	rows := [][]interface{}{
		{"Field", "Value"},
		{"Run", rec.ID.String()},
		{"Target", rec.Target},
		{"Task", rep.Kind.String()},
		{"Model", training.DisplayName(rep.Kind, training.ModelType(rec.ModelType))},
		{"Headline", rep.Headline},
		{"Details", rep.Info.ModelDescription},
		{"Train size", rep.Info.TrainSize},
		{"Test size", rep.Info.TestSize},
		{"Split ratio", rep.Info.SplitRatio},
	}
	switch {
	case rep.Classification != nil:
		c := rep.Classification
		rows = append(rows,
			[]interface{}{"Accuracy", c.Accuracy},
			[]interface{}{"Precision", c.Precision},
			[]interface{}{"Recall", c.Recall},
			[]interface{}{"F1", c.F1},
			[]interface{}{"Classes", c.LabelCount},
		)
	case rep.Regression != nil:
		r := rep.Regression
		rows = append(rows,
			[]interface{}{"R2", r.R2},
			[]interface{}{"MAE", r.MAE},
			[]interface{}{"RMSE", r.RMSE},
			[]interface{}{"MSE", r.MSE},
		)
	}
	return writeRows(f, summarySheet, rows)
}

func writeConfusion(f *excelize.File, c *training.ClassificationReport) error {
	if _, err := f.NewSheet(confusionSheet); err != nil {
		return fmt.Errorf("failed to add confusion sheet: %w", err)
	}
	header := []interface{}{"actual \\ predicted"}
	for _, l := range c.MatrixLabels {
		header = append(header, l)
	}
	rows := [][]interface{}{header}
	for i, l := range c.MatrixLabels {
		row := []interface{}{l}
		for _, v := range c.Matrix[i] {
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	if c.Truncated {
		rows = append(rows, []interface{}{fmt.Sprintf("showing %d of %d classes", len(c.MatrixLabels), c.LabelCount)})
	}
	return writeRows(f, confusionSheet, rows)
}

func writePerClass(f *excelize.File, c *training.ClassificationReport) error {
	if _, err := f.NewSheet(perClassSheet); err != nil {
		return fmt.Errorf("failed to add per-class sheet: %w", err)
	}
	rows := [][]interface{}{{"Label", "Support", "Predicted", "Correct", "Precision", "Recall"}}
	for _, s := range c.PerClass {
		rows = append(rows, []interface{}{s.Label, s.Support, s.Predicted, s.Correct, s.Precision, s.Recall})
	}
	return writeRows(f, perClassSheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
