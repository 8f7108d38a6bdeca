package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"pipewiz/domain/run"
	"pipewiz/domain/training"
	"pipewiz/ports"
)

// ReportWriter writes a report as Markdown, or as a standalone HTML page
// when the path ends in .html or .htm.
type ReportWriter struct{}

var _ ports.ReportWriter = (*ReportWriter)(nil)

func NewReportWriter() *ReportWriter {
	return &ReportWriter{}
}

func (w *ReportWriter) WriteReport(path string, rec run.Record, rep *training.Report) error {
	if rep == nil {
		return fmt.Errorf("no report to export")
	}
	md := Markdown(rec, rep)

	var out []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		out = HTML(md, "Training report: "+rec.Target)
	default:
		out = []byte(md)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}

// Markdown renders a report the way the result panel lays it out.
func Markdown(rec run.Record, rep *training.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", rep.Headline)
	fmt.Fprintf(&b, "- **Target:** %s\n", rec.Target)
	task := rep.Kind.String()
	if rec.AutoResolved {
		task += " (auto-detected)"
	}
	fmt.Fprintf(&b, "- **Task:** %s\n", task)
	fmt.Fprintf(&b, "- **Model:** %s\n", training.DisplayName(rep.Kind, training.ModelType(rec.ModelType)))
	fmt.Fprintf(&b, "- **Split:** %d train / %d test (%.0f%% held out)\n",
		rep.Info.TrainSize, rep.Info.TestSize, rep.Info.SplitRatio*100)
	if p := rep.Info.Preprocessing; len(p.Standardize) > 0 || len(p.Normalize) > 0 {
		fmt.Fprintf(&b, "- **Standardized:** %s\n", listOrNone(p.Standardize))
		fmt.Fprintf(&b, "- **Normalized:** %s\n", listOrNone(p.Normalize))
	}
	if rep.Info.ModelDescription != "" {
		fmt.Fprintf(&b, "\n%s\n", rep.Info.ModelDescription)
	}
	if rec.ID != "" {
		fmt.Fprintf(&b, "\n_Run %s, session %s_\n", rec.ID, rec.SessionID)
	}

	switch {
	case rep.Classification != nil:
		writeClassification(&b, rep.Classification)
	case rep.Regression != nil:
		r := rep.Regression
		b.WriteString("\n## Metrics\n\n| Metric | Value |\n|---|---|\n")
		fmt.Fprintf(&b, "| R² | %.4f |\n| MAE | %.4f |\n| RMSE | %.4f |\n| MSE | %.4f |\n", r.R2, r.MAE, r.RMSE, r.MSE)
	}
	return b.String()
}

func writeClassification(b *strings.Builder, c *training.ClassificationReport) {
	b.WriteString("\n## Metrics\n\n| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(b, "| Accuracy | %.4f |\n| Precision | %.4f |\n| Recall | %.4f |\n| F1 | %.4f |\n",
		c.Accuracy, c.Precision, c.Recall, c.F1)

	if len(c.MatrixLabels) == 0 {
		return
	}
	b.WriteString("\n## Confusion matrix\n\n")
	if c.Truncated {
		fmt.Fprintf(b, "Showing the first %d of %d classes.\n\n", len(c.MatrixLabels), c.LabelCount)
	}
	b.WriteString("| actual \\ predicted |")
	for _, l := range c.MatrixLabels {
		fmt.Fprintf(b, " %s |", escapeCell(l))
	}
	b.WriteString("\n|---|")
	b.WriteString(strings.Repeat("---|", len(c.MatrixLabels)))
	b.WriteString("\n")
	for i, l := range c.MatrixLabels {
		fmt.Fprintf(b, "| **%s** |", escapeCell(l))
		for _, v := range c.Matrix[i] {
			fmt.Fprintf(b, " %d |", v)
		}
		b.WriteString("\n")
	}
}

// HTML converts Markdown into a complete HTML page.
func HTML(md, title string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	r := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: title,
	})
	return markdown.ToHTML([]byte(md), p, r)
}

func listOrNone(xs []string) string {
	if len(xs) == 0 {
		return "none"
	}
	return strings.Join(xs, ", ")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
