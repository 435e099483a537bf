package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stedentabel/libs/cities"
)

func TestCitiesPageRendersSearchAndColumns(t *testing.T) {
	_, router := newLoadedTestApp(t)

	rec := doRequest(router, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, `placeholder="Search by city"`)
	assert.Contains(t, body, `type="search"`)
	assert.Contains(t, body, `style="width: 400px"`)
	assert.Equal(t, 2, strings.Count(body, `style="width: 300px"`))
	for _, label := range []string{">City", ">Province", ">Population"} {
		assert.Contains(t, body, label)
	}
	assert.Contains(t, body, `href="/sort/city"`)
	assert.Contains(t, body, "Amsterdam")
	assert.NotContains(t, body, `class="overlay"`)
	assert.NotContains(t, body, `http-equiv="refresh"`)
}

func TestCitiesPageShowsOverlayOnlyWhileLoading(t *testing.T) {
	loader := newGatedLoader(testCities(), nil)
	app, router := newTestApp(t, loader)

	errc := app.cities.Start(context.Background())

	rec := doRequest(router, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="overlay"`)
	assert.Contains(t, rec.Body.String(), `http-equiv="refresh"`)

	close(loader.release)
	require.NoError(t, <-errc)

	rec = doRequest(router, http.MethodGet, "/", "")
	assert.NotContains(t, rec.Body.String(), `class="overlay"`)
	assert.Contains(t, rec.Body.String(), "Groningen")
}

func TestCitiesPageShowsErrorBannerAfterFailedLoad(t *testing.T) {
	app, router := newTestApp(t, &stubLoader{err: errors.New("upstream unavailable")})
	require.Error(t, app.cities.Load(context.Background()))

	rec := doRequest(router, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, `class="error-banner"`)
	assert.Contains(t, body, pageLoadFailedMessage)
	assert.Contains(t, body, "upstream unavailable")
	assert.NotContains(t, body, `class="overlay"`)
}

func TestCitiesPageAppliesKeyword(t *testing.T) {
	app, router := newLoadedTestApp(t)

	rec := doRequest(router, http.MethodGet, "/?q=+AMS+", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "Amsterdam")
	assert.Contains(t, body, "Amstelveen")
	assert.NotContains(t, body, "Rotterdam")
	assert.Contains(t, body, `href="/sort/city?q=`)

	snapshot := app.cities.Snapshot()
	assert.Equal(t, " AMS ", snapshot.Keyword)
	assert.Len(t, snapshot.Displayed, 2)
	assert.Len(t, snapshot.All, 5)
}

func TestCitiesPageEmptyKeywordClearsSearch(t *testing.T) {
	app, router := newLoadedTestApp(t)
	app.cities.Search("ams")

	rec := doRequest(router, http.MethodGet, "/?q=", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, app.cities.Snapshot().Displayed, 5)
}

func TestCitiesPageAppliesSortParams(t *testing.T) {
	app, router := newLoadedTestApp(t)

	rec := doRequest(router, http.MethodGet, "/?sort=population&dir=desc", "")
	require.Equal(t, http.StatusOK, rec.Code)

	snapshot := app.cities.Snapshot()
	assert.Equal(t, cities.SortByPopulation, snapshot.SortKey)
	assert.Equal(t, cities.Descending, snapshot.Direction)
	assert.Equal(t, "Amsterdam", snapshot.Displayed[0].Name)

	body := rec.Body.String()
	assert.Less(t, strings.Index(body, "Amsterdam"), strings.Index(body, "Amstelveen"))
	assert.Contains(t, body, sortArrowDescending)
}

func TestCitiesPageIgnoresUnknownSortParams(t *testing.T) {
	app, router := newLoadedTestApp(t)

	rec := doRequest(router, http.MethodGet, "/?sort=altitude", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, cities.SortByCity, app.cities.Snapshot().SortKey)
}

func TestCitiesPageWindowsRows(t *testing.T) {
	_, router := newLoadedTestApp(t)

	rec := doRequest(router, http.MethodGet, "/?rows=2&offset=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	// Ascending by city: Amstelveen, Amsterdam, Groningen, Rotterdam, Utrecht.
	assert.NotContains(t, body, "<td>Amsterdam</td>")
	assert.Contains(t, body, "<td>Groningen</td>")
	assert.Contains(t, body, "<td>Rotterdam</td>")
	assert.NotContains(t, body, "<td>Utrecht</td>")
	assert.Contains(t, body, "3-4 of 5")
	assert.Contains(t, body, `href="/?rows=2&amp;offset=0"`)
	assert.Contains(t, body, `href="/?rows=2&amp;offset=4"`)
}

func TestToggleSortPageFlipsDirectionAndKeepsKeyword(t *testing.T) {
	app, router := newLoadedTestApp(t)

	rec := doRequest(router, http.MethodGet, "/sort/population?q=ams", "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?q=ams", rec.Header().Get("Location"))

	snapshot := app.cities.Snapshot()
	assert.Equal(t, cities.SortByPopulation, snapshot.SortKey)
	assert.Equal(t, cities.Ascending, snapshot.Direction)

	rec = doRequest(router, http.MethodGet, "/sort/population", "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, cities.Descending, app.cities.Snapshot().Direction)

	rec = doRequest(router, http.MethodGet, "/sort/city", "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	snapshot = app.cities.Snapshot()
	assert.Equal(t, cities.SortByCity, snapshot.SortKey)
	assert.Equal(t, cities.Ascending, snapshot.Direction)
}

func TestToggleSortPageRejectsUnknownColumn(t *testing.T) {
	_, router := newLoadedTestApp(t)

	rec := doRequest(router, http.MethodGet, "/sort/altitude", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStaticStylesheetIsServed(t *testing.T) {
	_, router := newLoadedTestApp(t)

	rec := doRequest(router, http.MethodGet, "/static/page.css", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".overlay")
}
