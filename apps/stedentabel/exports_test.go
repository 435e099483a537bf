package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stedentabel/libs/cities"
	"stedentabel/libs/mailer"
	"stedentabel/libs/viewstate"
)

type capturingProvider struct {
	sent []mailer.Message
}

func (p *capturingProvider) Name() string { return "capture" }

func (p *capturingProvider) Send(msg mailer.Message) (mailer.SendResult, error) {
	p.sent = append(p.sent, msg)
	return mailer.SendResult{ProviderMessageID: "msg-1"}, nil
}

func TestBuildCSV(t *testing.T) {
	body, err := buildCSV([]cities.City{
		{Name: "'s-Hertogenbosch", AdminName: "Noord-Brabant", Population: 160783},
		{Name: "Bergen, NH", AdminName: "Noord-Holland", Population: 0},
	})
	require.NoError(t, err)

	expected := "city,admin_name,population\n" +
		"'s-Hertogenbosch,Noord-Brabant,160783\n" +
		"\"Bergen, NH\",Noord-Holland,0\n"
	assert.Equal(t, expected, body)
}

func TestBuildCSVEmptyListHasHeader(t *testing.T) {
	body, err := buildCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "city,admin_name,population\n", body)
}

func TestBuildPDF(t *testing.T) {
	body, err := buildPDF(testCities(), exportTitle, "Sorted by city (asc)")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF-")))
}

func TestBuildPDFHandlesAccentedNames(t *testing.T) {
	body, err := buildPDF([]cities.City{{Name: "Súdwest-Fryslân", AdminName: "Fryslân", Population: 90000}}, exportTitle, "")
	require.NoError(t, err)
	assert.NotEmpty(t, body)
}

func TestBuildExportRejectsUnknownFormat(t *testing.T) {
	_, _, _, err := buildExport("xlsx", testCities(), "")
	assert.Error(t, err)
}

func TestExportSubtitle(t *testing.T) {
	assert.Equal(t, "Sorted by city (asc)", exportSubtitle("  ", cities.SortByCity, cities.Ascending))
	assert.Equal(t, `Sorted by population (desc), search "ams"`, exportSubtitle("ams", cities.SortByPopulation, cities.Descending))
}

func TestExportCSVHandlerServesDisplayedList(t *testing.T) {
	app, router := newLoadedTestApp(t)
	app.cities.ChangeSort(cities.SortByPopulation, cities.Descending)
	app.cities.Search("ams")

	rec := doRequest(router, http.MethodGet, "/export.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, exportContentCSV, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="cities.csv"`, rec.Header().Get("Content-Disposition"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Amsterdam,Noord-Holland,872680", lines[1])
	assert.Equal(t, "Amstelveen,Noord-Holland,90870", lines[2])
	assert.Equal(t, 1.0, testutil.ToFloat64(app.metrics.Exports.WithLabelValues(exportFormatCSV)))
}

func TestExportCSVHandlerAppliesKeywordWithoutChangingState(t *testing.T) {
	app, router := newLoadedTestApp(t)

	rec := doRequest(router, http.MethodGet, "/export.csv?q=dam", "")
	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Equal(t, []string{"city,admin_name,population", "Amsterdam,Noord-Holland,872680", "Rotterdam,Zuid-Holland,651446"}, lines)

	snapshot := app.cities.Snapshot()
	assert.Empty(t, snapshot.Keyword)
	assert.Len(t, snapshot.Displayed, 5)
}

func TestExportPDFHandler(t *testing.T) {
	app, router := newLoadedTestApp(t)

	rec := doRequest(router, http.MethodGet, "/export.pdf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, exportContentPDF, rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
	assert.Equal(t, 1.0, testutil.ToFloat64(app.metrics.Exports.WithLabelValues(exportFormatPDF)))
}

func newExportController(loader cities.Loader) *viewstate.Controller {
	return viewstate.New(loader, viewstate.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestRunExportWritesFileAndMailsAttachment(t *testing.T) {
	provider := &capturingProvider{}
	m := mailer.New(provider, "noreply@stedentabel.local")
	out := filepath.Join(t.TempDir(), "nl.csv")
	metrics := newMetrics()

	err := runExport(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)),
		newExportController(&stubLoader{cities: testCities()}), m, metrics, exportOptions{
			Format:    "CSV",
			Out:       out,
			Keyword:   "ams",
			SortKey:   "population",
			Direction: "desc",
			Email:     "gemeente@example.nl",
		})
	require.NoError(t, err)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "city,admin_name,population\nAmsterdam,Noord-Holland,872680\nAmstelveen,Noord-Holland,90870\n", string(content))

	require.Len(t, provider.sent, 1)
	msg := provider.sent[0]
	assert.Equal(t, []string{"gemeente@example.nl"}, msg.To)
	assert.Equal(t, "noreply@stedentabel.local", msg.From)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "cities.csv", msg.Attachments[0].Filename)
	assert.Equal(t, content, msg.Attachments[0].Content)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Exports.WithLabelValues(exportFormatCSV)))
}

func TestRunExportWithoutEmailSkipsMailer(t *testing.T) {
	provider := &capturingProvider{}
	out := filepath.Join(t.TempDir(), "nl.pdf")

	err := runExport(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)),
		newExportController(&stubLoader{cities: testCities()}), mailer.New(provider, ""), newMetrics(),
		exportOptions{Format: exportFormatPDF, Out: out})
	require.NoError(t, err)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
	assert.Empty(t, provider.sent)
}

func TestRunExportRejectsBadInput(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := mailer.New(&capturingProvider{}, "")

	err := runExport(context.Background(), logger, newExportController(&stubLoader{cities: testCities()}), m, newMetrics(),
		exportOptions{Format: "xlsx"})
	assert.ErrorContains(t, err, "unknown export format")

	err = runExport(context.Background(), logger, newExportController(&stubLoader{cities: testCities()}), m, newMetrics(),
		exportOptions{Format: exportFormatCSV, SortKey: "altitude"})
	assert.ErrorIs(t, err, cities.ErrUnknownSortKey)

	err = runExport(context.Background(), logger, newExportController(&stubLoader{err: assert.AnError}), m, newMetrics(),
		exportOptions{Format: exportFormatCSV, Out: filepath.Join(t.TempDir(), "x.csv")})
	assert.ErrorIs(t, err, assert.AnError)
}
