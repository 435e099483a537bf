package main

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"stedentabel/libs/cities"
)

func (a *App) registerPageRoutes(r *gin.Engine) {
	staticFS, err := pageStaticFileSystem(a.pageTemplates.assets)
	if err != nil {
		panic(err)
	}
	r.StaticFS("/static", staticFS)

	r.GET(pageRootPath, a.citiesPageHandler)
	r.GET(pageSortPathPrefix+":key", a.toggleSortPageHandler)
	r.GET(pageExportCSVPath, a.exportCSVHandler)
	r.GET(pageExportPDFPath, a.exportPDFHandler)
}

func (a *App) citiesPageHandler(c *gin.Context) {
	a.applyPageQuery(c)

	offset := parseOffset(c.Query(pageQueryOffset))
	limit := parseRowLimit(c.Query(pageQueryRows), a.cfg.PageRows)
	page := a.cities.Window(offset, limit)

	data := citiesPageViewData{
		pageBaseViewData: pageBaseViewData{Title: pageTitle},
		Placeholder:      pageSearchPlaceholder,
		Keyword:          page.Keyword,
		Loading:          page.Loading,
		Columns:          buildColumnViews(page.SortKey, page.Direction, page.Keyword),
		Rows:             buildCityRows(page.Cities),
		Window:           buildWindowView(page.Total, page.Offset, limit, pageWindowURL(page.Keyword, limit, a.cfg.PageRows)),
		TableWidthPx:     tableWidthPx(),
		ExportCSVURL:     withKeyword(pageExportCSVPath, page.Keyword),
		ExportPDFURL:     withKeyword(pageExportPDFPath, page.Keyword),
	}
	if page.Loading {
		data.RefreshSeconds = pageLoadingRefreshSecs
	}
	if page.Err != nil {
		data.ErrorMessage = pageLoadFailedMessage
		data.ErrorDetail = page.Err.Error()
	}
	if !page.LoadedAt.IsZero() {
		data.LoadedAt = page.LoadedAt.Format(pageDisplayTimestamp)
	}

	a.renderPageTemplate(c, http.StatusOK, pageTemplateCitiesPath, data)
}

// applyPageQuery pushes the search and sort parameters of the request into
// the controller. Unchanged values are skipped so paging and the loading
// refresh do not re-run the pipeline.
func (a *App) applyPageQuery(c *gin.Context) {
	current := a.cities.Window(0, 0)

	if rawKey := strings.TrimSpace(c.Query(pageQuerySortKey)); rawKey != "" {
		key, keyErr := cities.ParseSortKey(rawKey)
		dir := cities.Ascending
		var dirErr error
		if rawDir := strings.TrimSpace(c.Query(pageQuerySortDirection)); rawDir != "" {
			dir, dirErr = cities.ParseDirection(rawDir)
		}
		if keyErr == nil && dirErr == nil && (key != current.SortKey || dir != current.Direction) {
			a.cities.ChangeSort(key, dir)
		}
	}

	if keyword, ok := c.GetQuery(pageQueryKeyword); ok && keyword != current.Keyword {
		a.cities.Search(keyword)
	}
}

// toggleSortPageHandler handles a header click and sends the browser back to
// the table with the current search preserved.
func (a *App) toggleSortPageHandler(c *gin.Context) {
	key, err := cities.ParseSortKey(c.Param("key"))
	if err != nil {
		c.String(http.StatusBadRequest, "unknown sort column %q", c.Param("key"))
		return
	}
	a.cities.ToggleSort(key)
	c.Redirect(http.StatusSeeOther, withKeyword(pageRootPath, c.Query(pageQueryKeyword)))
}

func (a *App) renderPageTemplate(c *gin.Context, status int, contentTemplatePath string, data any) {
	templates, err := a.pageTemplates.templatesForRender(contentTemplatePath)
	if err != nil {
		c.String(http.StatusInternalServerError, "page template error: %v", err)
		return
	}

	c.Status(status)
	if executeErr := templates.ExecuteTemplate(c.Writer, "layout", data); executeErr != nil {
		a.log.Error("render page template failed", "error", executeErr)
		if !c.Writer.Written() {
			c.String(http.StatusInternalServerError, "render failure")
		}
	}
}

func pageWindowURL(keyword string, limit, defaultLimit int) string {
	values := url.Values{}
	if keyword != "" {
		values.Set(pageQueryKeyword, keyword)
	}
	if limit != defaultLimit {
		values.Set(pageQueryRows, strconv.Itoa(limit))
	}
	if len(values) == 0 {
		return pageRootPath
	}
	return pageRootPath + "?" + values.Encode()
}
