package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-pdf/fpdf"

	"stedentabel/libs/cities"
	"stedentabel/libs/mailer"
	"stedentabel/libs/viewstate"
)

const (
	exportFormatCSV   = "csv"
	exportFormatPDF   = "pdf"
	exportTitle       = "Dutch cities"
	exportFileStem    = "cities"
	exportContentCSV  = "text/csv; charset=utf-8"
	exportContentPDF  = "application/pdf"
	exportDateDisplay = "2006-01-02 15:04"
)

var pdfColumnWidthsMM = []float64{80, 60, 40}

func buildCSV(list []cities.City) (string, error) {
	buffer := bytes.NewBuffer(nil)
	writer := csv.NewWriter(buffer)
	if err := writer.Write([]string{"city", "admin_name", "population"}); err != nil {
		return "", err
	}
	for _, city := range list {
		row := []string{
			city.Name,
			city.AdminName,
			strconv.FormatInt(city.Population, 10),
		}
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	return buffer.String(), nil
}

func buildPDF(list []cities.City, title, subtitle string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 16)
	pdf.Cell(0, 10, tr(title))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	if subtitle != "" {
		pdf.Cell(0, 8, tr(subtitle))
		pdf.Ln(7)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Total cities: %d", len(list)))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	for i, col := range tableColumns {
		pdf.CellFormat(pdfColumnWidthsMM[i], 7, col.Label, "B", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, city := range list {
		pdf.CellFormat(pdfColumnWidthsMM[0], 6, tr(city.Name), "", 0, "L", false, 0, "")
		pdf.CellFormat(pdfColumnWidthsMM[1], 6, tr(city.AdminName), "", 0, "L", false, 0, "")
		pdf.CellFormat(pdfColumnWidthsMM[2], 6, strconv.FormatInt(city.Population, 10), "", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	buffer := bytes.NewBuffer(nil)
	if err := pdf.Output(buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// buildExport renders list in the requested format and returns the content
// type, body and download file name.
func buildExport(format string, list []cities.City, subtitle string) (string, []byte, string, error) {
	switch format {
	case exportFormatCSV:
		body, err := buildCSV(list)
		if err != nil {
			return "", nil, "", err
		}
		return exportContentCSV, []byte(body), exportFileStem + ".csv", nil
	case exportFormatPDF:
		body, err := buildPDF(list, exportTitle, subtitle)
		if err != nil {
			return "", nil, "", err
		}
		return exportContentPDF, body, exportFileStem + ".pdf", nil
	default:
		return "", nil, "", fmt.Errorf("unknown export format %q", format)
	}
}

func exportSubtitle(keyword string, key cities.SortKey, dir cities.Direction) string {
	parts := []string{fmt.Sprintf("Sorted by %s (%s)", key, dir)}
	if keyword = strings.TrimSpace(keyword); keyword != "" {
		parts = append(parts, fmt.Sprintf("search %q", keyword))
	}
	return strings.Join(parts, ", ")
}

func (a *App) exportCSVHandler(c *gin.Context) {
	a.exportDownload(c, exportFormatCSV)
}

func (a *App) exportPDFHandler(c *gin.Context) {
	a.exportDownload(c, exportFormatPDF)
}

// exportDownload serves the displayed list. A q parameter that differs from
// the active search is applied to the export only.
func (a *App) exportDownload(c *gin.Context, format string) {
	snapshot := a.cities.Snapshot()
	list := snapshot.Displayed
	keyword := snapshot.Keyword
	if q, ok := c.GetQuery(pageQueryKeyword); ok && q != snapshot.Keyword {
		keyword = q
		list = cities.Sort(cities.Filter(snapshot.All, q), snapshot.SortKey, snapshot.Direction)
	}

	contentType, body, fileName, err := buildExport(format, list, exportSubtitle(keyword, snapshot.SortKey, snapshot.Direction))
	if err != nil {
		writeAPIError(c, err)
		return
	}
	a.metrics.Exports.WithLabelValues(format).Inc()

	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", fileName))
	_, _ = c.Writer.Write(body)
}

type exportOptions struct {
	Format    string
	Out       string
	Keyword   string
	SortKey   string
	Direction string
	Email     string
}

// runExport loads the dataset once, applies the requested sort and search
// and writes the export to opts.Out, mailing it when an address is given.
func runExport(ctx context.Context, logger *slog.Logger, controller *viewstate.Controller, m *mailer.Mailer, metrics *Metrics, opts exportOptions) error {
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format != exportFormatCSV && format != exportFormatPDF {
		return fmt.Errorf("unknown export format %q", opts.Format)
	}
	if err := applySortFlags(controller, opts.SortKey, opts.Direction); err != nil {
		return err
	}

	if err := controller.Load(ctx); err != nil {
		return fmt.Errorf("load cities: %w", err)
	}
	if opts.Keyword != "" {
		controller.Search(opts.Keyword)
	}

	snapshot := controller.Snapshot()
	_, body, fileName, err := buildExport(format, snapshot.Displayed, exportSubtitle(snapshot.Keyword, snapshot.SortKey, snapshot.Direction))
	if err != nil {
		return fmt.Errorf("build %s export: %w", format, err)
	}
	metrics.Exports.WithLabelValues(format).Inc()

	out := opts.Out
	if out == "" {
		out = fileName
	}
	if err := os.WriteFile(out, body, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	logger.Info("export written", "path", out, "format", format, "count", len(snapshot.Displayed))

	if opts.Email == "" {
		return nil
	}
	result, err := m.Send(mailer.Message{
		To:      []string{opts.Email},
		Subject: fmt.Sprintf("%s export (%s)", exportTitle, time.Now().Format(exportDateDisplay)),
		Text:    fmt.Sprintf("Attached: %d cities as %s.", len(snapshot.Displayed), strings.ToUpper(format)),
		Attachments: []mailer.Attachment{
			{Filename: fileName, Content: body},
		},
	})
	if err != nil {
		return fmt.Errorf("mail export: %w", err)
	}
	logger.Info("export mailed", "to", opts.Email, "provider", m.ProviderName(), "message_id", result.ProviderMessageID)
	return nil
}

// applySortFlags configures the sort before the first load so the loaded
// list arrives already ordered. An empty key leaves the default in place.
func applySortFlags(controller *viewstate.Controller, rawKey, rawDir string) error {
	if strings.TrimSpace(rawKey) == "" {
		return nil
	}
	key, err := cities.ParseSortKey(rawKey)
	if err != nil {
		return err
	}
	dir := cities.Ascending
	if strings.TrimSpace(rawDir) != "" {
		dir, err = cities.ParseDirection(rawDir)
		if err != nil {
			return err
		}
	}
	controller.ChangeSort(key, dir)
	return nil
}
