package main

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
)

const (
	pageLayoutTemplatePath = "templates/page/layout.tmpl"
	pageStaticDir          = "page_static"
	pageSourceDir          = "apps/stedentabel"
	pageAssetsEmbedded     = "embedded"
)

//go:embed templates/page/*.tmpl page_static/*
var pageAssetsFS embed.FS

// pageAssets is where templates and static files are read from. A disk
// directory is re-read on every request; the embedded copy is fixed at build.
type pageAssets struct {
	fsys   fs.FS
	source string
}

// resolvePageAssets picks dir when set, otherwise in development the app
// directory relative to the working dir or the module root. Anything that
// does not hold the layout template falls back to the embedded copy.
func resolvePageAssets(env, dir string) pageAssets {
	var candidates []string
	switch {
	case dir != "":
		candidates = []string{dir}
	case env == "development":
		candidates = []string{".", pageSourceDir}
	}

	for _, candidate := range candidates {
		layout := filepath.Join(candidate, filepath.FromSlash(pageLayoutTemplatePath))
		if info, err := os.Stat(layout); err == nil && !info.IsDir() {
			return pageAssets{fsys: os.DirFS(candidate), source: candidate}
		}
	}
	return pageAssets{fsys: pageAssetsFS, source: pageAssetsEmbedded}
}

type pageTemplateRenderer struct {
	assets pageAssets
}

func newPageTemplateRenderer(assets pageAssets) *pageTemplateRenderer {
	return &pageTemplateRenderer{assets: assets}
}

func (r *pageTemplateRenderer) templatesForRender(contentTemplatePath string) (*template.Template, error) {
	templates, err := template.New("layout.tmpl").ParseFS(r.assets.fsys, pageLayoutTemplatePath, contentTemplatePath)
	if err != nil {
		return nil, fmt.Errorf("parse page templates from %s: %w", r.assets.source, err)
	}
	return templates, nil
}

func pageStaticFileSystem(assets pageAssets) (http.FileSystem, error) {
	sub, err := fs.Sub(assets.fsys, pageStaticDir)
	if err != nil {
		return nil, fmt.Errorf("page static fs: %w", err)
	}
	return http.FS(sub), nil
}
