package cities

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
)

// DefaultURL serves the simplemaps spreadsheet export for the Netherlands.
const DefaultURL = "https://simplemaps.com/static/data/country-cities/nl/nl_spreadsheet.json"

const (
	columnCity       = "city"
	columnAdminName  = "admin_name"
	columnPopulation = "population"
	maxErrorBody     = 512
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status from city source")
	ErrEmptyPayload     = errors.New("city payload has no header row")
	ErrMissingColumn    = errors.New("city payload header is missing a column")
)

// Loader fetches the full city list in source order.
type Loader interface {
	Load(ctx context.Context) ([]City, error)
}

// HTTPLoader fetches the dataset with a single GET. There is no retry.
type HTTPLoader struct {
	URL       string
	UserAgent string
	Client    *http.Client
}

func (l *HTTPLoader) Load(ctx context.Context) ([]City, error) {
	u := l.URL
	if u == "" {
		u = DefaultURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if l.UserAgent != "" {
		req.Header.Set("User-Agent", l.UserAgent)
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch cities: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w (%d): %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return Decode(resp.Body)
}

// FileLoader reads a local copy of the dataset in the same format.
type FileLoader struct {
	Path string
}

func (l *FileLoader) Load(ctx context.Context) ([]City, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("open city file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// FallbackLoader prioritizes Primary and falls back to Secondary when the
// primary fails or returns no cities.
type FallbackLoader struct {
	Primary   Loader
	Secondary Loader
	Logger    *slog.Logger
}

func (l *FallbackLoader) Load(ctx context.Context) ([]City, error) {
	list, err := l.Primary.Load(ctx)
	if err == nil && len(list) > 0 {
		return list, nil
	}
	if l.Secondary == nil {
		return list, err
	}
	if l.Logger != nil {
		l.Logger.Warn("primary city source failed, using fallback", "err", err)
	}
	fallback, secondaryErr := l.Secondary.Load(ctx)
	if secondaryErr != nil {
		return nil, errors.Join(err, secondaryErr)
	}
	return fallback, nil
}

// Decode parses a JSON array-of-arrays payload whose first element is the
// header row.
func Decode(r io.Reader) ([]City, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var payload [][]any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode cities: %w", err)
	}
	return ParseRows(payload)
}

// ParseRows maps rows to cities using the column positions named in the
// header row. Header names match exactly. Values missing from a short row
// become zero values.
func ParseRows(payload [][]any) ([]City, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}

	header := payload[0]
	cityIdx := columnIndex(header, columnCity)
	adminIdx := columnIndex(header, columnAdminName)
	popIdx := columnIndex(header, columnPopulation)

	var missing []string
	for _, col := range []struct {
		name string
		idx  int
	}{{columnCity, cityIdx}, {columnAdminName, adminIdx}, {columnPopulation, popIdx}} {
		if col.idx < 0 {
			missing = append(missing, col.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	rows := payload[1:]
	out := make([]City, 0, len(rows))
	for _, row := range rows {
		out = append(out, City{
			Name:       stringCell(row, cityIdx),
			AdminName:  stringCell(row, adminIdx),
			Population: numberCell(row, popIdx),
		})
	}
	return out, nil
}

func columnIndex(header []any, name string) int {
	for i, cell := range header {
		if s, ok := cell.(string); ok && s == name {
			return i
		}
	}
	return -1
}

func stringCell(row []any, idx int) string {
	if idx >= len(row) {
		return ""
	}
	switch v := row[idx].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func numberCell(row []any, idx int) int64 {
	if idx >= len(row) {
		return 0
	}
	switch v := row[idx].(type) {
	case json.Number:
		return parsePopulation(v.String())
	case string:
		return parsePopulation(v)
	case float64:
		return truncate(v)
	case int:
		return nonNegative(int64(v))
	case int64:
		return nonNegative(v)
	default:
		return 0
	}
}

func parsePopulation(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err == nil {
		return nonNegative(n)
	}
	if errors.Is(err, strconv.ErrRange) {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return truncate(f)
}

// truncate drops the fraction. Values outside [0, MaxInt64) become 0.
func truncate(f float64) int64 {
	if math.IsNaN(f) || f < 0 || f >= math.MaxInt64 {
		return 0
	}
	return int64(f)
}

func nonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
