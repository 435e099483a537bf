package main

import (
	"net/url"
	"strconv"

	"stedentabel/libs/cities"
)

const (
	pageTemplateCitiesPath  = "templates/page/cities.tmpl"
	pageTitle               = "Dutch cities"
	pageSearchPlaceholder   = "Search by city"
	pageLoadingRefreshSecs  = 1
	pageDisplayTimestamp    = "2006-01-02 15:04"
	pageLoadFailedMessage   = "The city list could not be loaded."
	sortArrowAscending      = "▲"
	sortArrowDescending     = "▼"
	pageExportCSVPath       = "/export.csv"
	pageExportPDFPath       = "/export.pdf"
	pageSortPathPrefix      = "/sort/"
	pageRootPath            = "/"
	pageQueryKeyword        = "q"
	pageQueryOffset         = "offset"
	pageQueryRows           = "rows"
	pageQuerySortKey        = "sort"
	pageQuerySortDirection  = "dir"
	pageTableColumnCityPx   = 400
	pageTableColumnRegionPx = 300
	pageTableColumnPeoplePx = 300
)

type tableColumnSpec struct {
	Label   string
	Key     cities.SortKey
	WidthPx int
}

var tableColumns = []tableColumnSpec{
	{Label: "City", Key: cities.SortByCity, WidthPx: pageTableColumnCityPx},
	{Label: "Province", Key: cities.SortByAdminName, WidthPx: pageTableColumnRegionPx},
	{Label: "Population", Key: cities.SortByPopulation, WidthPx: pageTableColumnPeoplePx},
}

type pageBaseViewData struct {
	Title          string
	RefreshSeconds int
	ErrorMessage   string
	ErrorDetail    string
}

type tableColumnView struct {
	Label   string
	Key     string
	WidthPx int
	Active  bool
	Arrow   string
	SortURL string
}

type cityRowView struct {
	City       string
	Province   string
	Population string
}

type windowViewData struct {
	Offset     int
	Limit      int
	Total      int
	First      int
	Last       int
	NextOffset int
	PrevOffset int
	HasNext    bool
	HasPrev    bool
	PrevURL    string
	NextURL    string
}

type citiesPageViewData struct {
	pageBaseViewData
	Placeholder  string
	Keyword      string
	Loading      bool
	LoadedAt     string
	Columns      []tableColumnView
	Rows         []cityRowView
	Window       windowViewData
	TableWidthPx int
	ExportCSVURL string
	ExportPDFURL string
}

func buildColumnViews(active cities.SortKey, dir cities.Direction, keyword string) []tableColumnView {
	views := make([]tableColumnView, 0, len(tableColumns))
	for _, col := range tableColumns {
		view := tableColumnView{
			Label:   col.Label,
			Key:     col.Key.String(),
			WidthPx: col.WidthPx,
			SortURL: withKeyword(pageSortPathPrefix+col.Key.String(), keyword),
		}
		if col.Key == active {
			view.Active = true
			view.Arrow = sortArrowAscending
			if dir == cities.Descending {
				view.Arrow = sortArrowDescending
			}
		}
		views = append(views, view)
	}
	return views
}

func buildCityRows(list []cities.City) []cityRowView {
	rows := make([]cityRowView, 0, len(list))
	for _, city := range list {
		rows = append(rows, cityRowView{
			City:       city.Name,
			Province:   city.AdminName,
			Population: strconv.FormatInt(city.Population, 10),
		})
	}
	return rows
}

func tableWidthPx() int {
	total := 0
	for _, col := range tableColumns {
		total += col.WidthPx
	}
	return total
}

// withKeyword appends the search keyword to path when one is set.
func withKeyword(path, keyword string) string {
	if keyword == "" {
		return path
	}
	return path + "?" + url.Values{pageQueryKeyword: {keyword}}.Encode()
}
