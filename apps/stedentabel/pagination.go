package main

import (
	"strconv"
	"strings"
)

func parseOffset(raw string) int {
	offset, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}

func parseRowLimit(raw string, fallback int) int {
	limit, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || limit < 1 {
		return fallback
	}
	if limit > maxPageRows {
		return maxPageRows
	}
	return limit
}

// buildWindowView describes the slice of the displayed list rendered in the
// table body; rows outside the window are never rendered.
func buildWindowView(total, offset, limit int, pageURL string) windowViewData {
	if limit < 1 {
		limit = defaultPageRows
	}
	offset = max(0, min(offset, total))

	end := offset + min(limit, total-offset)
	first, last := 0, 0
	if end > offset {
		first = offset + 1
		last = end
	}

	prev := offset - limit
	if prev < 0 {
		prev = 0
	}

	separator := "?"
	if strings.Contains(pageURL, "?") {
		separator = "&"
	}
	offsetURL := func(at int) string {
		return pageURL + separator + pageQueryOffset + "=" + strconv.Itoa(at)
	}

	return windowViewData{
		Offset:     offset,
		Limit:      limit,
		Total:      total,
		First:      first,
		Last:       last,
		NextOffset: end,
		PrevOffset: prev,
		HasNext:    end < total,
		HasPrev:    offset > 0,
		PrevURL:    offsetURL(prev),
		NextURL:    offsetURL(end),
	}
}
