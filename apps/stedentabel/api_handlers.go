package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stedentabel/libs/cities"
	"stedentabel/libs/viewstate"
)

type cityListResponse struct {
	Items     []cities.City `json:"items"`
	Total     int           `json:"total"`
	Offset    int           `json:"offset"`
	Limit     int           `json:"limit"`
	SortKey   string        `json:"sort_key"`
	Direction string        `json:"direction"`
	Keyword   string        `json:"keyword"`
	Loading   bool          `json:"loading"`
}

type statusResponse struct {
	Loading  bool       `json:"loading"`
	Loaded   bool       `json:"loaded"`
	Error    string     `json:"error,omitempty"`
	Count    int        `json:"count"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
}

type searchRequest struct {
	Keyword string `json:"keyword"`
}

type sortRequest struct {
	Key       string `json:"key" binding:"required"`
	Direction string `json:"direction"`
}

func (a *App) listCitiesHandler(c *gin.Context) {
	offset := parseOffset(c.Query("offset"))
	limit := parseRowLimit(c.Query("limit"), a.cfg.PageRows)
	c.JSON(http.StatusOK, a.cityListPayload(offset, limit))
}

func (a *App) searchCitiesHandler(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAPIError(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_request", Message: "Invalid search payload"})
		return
	}

	a.cities.Search(req.Keyword)
	c.JSON(http.StatusOK, a.cityListPayload(0, a.cfg.PageRows))
}

func (a *App) sortCitiesHandler(c *gin.Context) {
	var req sortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAPIError(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_sort", Message: "Sort key is required"})
		return
	}

	key, err := cities.ParseSortKey(req.Key)
	if err != nil {
		writeAPIError(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_sort", Message: err.Error()})
		return
	}
	dir := cities.Ascending
	if req.Direction != "" {
		dir, err = cities.ParseDirection(req.Direction)
		if err != nil {
			writeAPIError(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_sort", Message: err.Error()})
			return
		}
	}

	a.cities.ChangeSort(key, dir)
	c.JSON(http.StatusOK, a.cityListPayload(0, a.cfg.PageRows))
}

func (a *App) statusHandler(c *gin.Context) {
	page := a.cities.Window(0, 0)
	resp := statusResponse{
		Loading: page.Loading,
		Loaded:  page.Loaded,
		Count:   page.Total,
	}
	if page.Err != nil {
		resp.Error = page.Err.Error()
	}
	if !page.LoadedAt.IsZero() {
		loadedAt := page.LoadedAt.UTC()
		resp.LoadedAt = &loadedAt
	}
	c.JSON(http.StatusOK, resp)
}

// reloadHandler starts a fresh load detached from the request; the result is
// observable through the status endpoint.
func (a *App) reloadHandler(c *gin.Context) {
	errc := a.cities.Start(context.WithoutCancel(c.Request.Context()))
	select {
	case err := <-errc:
		if errors.Is(err, viewstate.ErrLoadInProgress) {
			writeAPIError(c, &apiError{Status: http.StatusConflict, Code: "load_in_progress", Message: "A load is already running"})
			return
		}
	default:
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "loading"})
}

func (a *App) cityListPayload(offset, limit int) cityListResponse {
	page := a.cities.Window(offset, limit)
	return cityListResponse{
		Items:     page.Cities,
		Total:     page.Total,
		Offset:    page.Offset,
		Limit:     limit,
		SortKey:   page.SortKey.String(),
		Direction: page.Direction.String(),
		Keyword:   page.Keyword,
		Loading:   page.Loading,
	}
}
