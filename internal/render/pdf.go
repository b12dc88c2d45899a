package render

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/pavelanni/interviewer/internal/model"
)

// PDF writes the report as an A4 PDF document using the core Helvetica font.
func PDF(ctx context.Context, w io.Writer, r *model.FinalReport, topic string) error {
	return writePDF(ctx, w, r, topic, true)
}

func writePDF(ctx context.Context, w io.Writer, r *model.FinalReport, topic string, compress bool) error {
	doc := layout(ctx, r, topic)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compress)
	pdf.SetTitle(toCP1252(doc.Title), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, toCP1252(doc.Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, toCP1252(doc.Subtitle), "", 1, "C", false, 0, "")
	if doc.Notice != "" {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 6, toCP1252(doc.Notice), "", "C", false)
	}
	pdf.Ln(10)

	for _, s := range doc.Sections {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 10, toCP1252(s.Heading), "", 1, "", false, 0, "")
		for _, b := range s.Blocks {
			if b.Label != "" {
				pdf.SetFont("Helvetica", "B", 12)
				pdf.CellFormat(0, 8, toCP1252(b.Label), "", 1, "", false, 0, "")
			}
			pdf.SetFont("Helvetica", "", 12)
			for _, p := range b.Paragraphs {
				pdf.MultiCell(0, 8, toCP1252(p), "", "", false)
				pdf.Ln(2)
			}
			for _, item := range b.Items {
				pdf.MultiCell(0, 8, toCP1252("• "+item), "", "", false)
			}
			if len(b.Items) > 0 {
				pdf.Ln(3)
			}
		}
		pdf.Ln(5)
	}

	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(0, 8, toCP1252(doc.Footer), "", 1, "C", false, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	return pdf.Output(w)
}

var symbolReplacer = strings.NewReplacer(
	"\U0001F916", "[AI]",
	"\U0001F4CA", "[Chart]",
	"✅", "[Check]",
	"⚠️", "[Warning]",
	"⚠", "[Warning]",
	"\U0001F4A1", "[Idea]",
	"\U0001F3AF", "[Target]",
	"⭐", "[Star]",
	"\U0001F680", "[Start]",
	"\U0001F4C8", "[Trend]",
)

// toCP1252 converts s to the single-byte encoding of the core PDF fonts.
// Runes outside Windows-1252 become '?'.
func toCP1252(s string) string {
	s = symbolReplacer.Replace(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if c, ok := charmap.Windows1252.EncodeRune(r); ok {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('?')
	}
	return b.String()
}
