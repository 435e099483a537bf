package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"stedentabel/libs/cities"
	"stedentabel/libs/viewstate"
)

const (
	printFormatTable = "table"
	printFormatJSON  = "json"
)

type printOptions struct {
	Format    string
	Keyword   string
	SortKey   string
	Direction string
	Limit     int
}

func runPrint(ctx context.Context, w io.Writer, controller *viewstate.Controller, opts printOptions) error {
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = printFormatTable
	}
	if format != printFormatTable && format != printFormatJSON {
		return fmt.Errorf("unknown print format %q", opts.Format)
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

	list := controller.Snapshot().Displayed
	if opts.Limit > 0 && len(list) > opts.Limit {
		list = list[:opts.Limit]
	}

	if format == printFormatJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(list)
	}
	return writeCityTable(w, list)
}

var (
	printHeaderStyle = lipgloss.NewStyle().Bold(true).PaddingRight(2)
	printCellStyle   = lipgloss.NewStyle().PaddingRight(2)
)

func writeCityTable(w io.Writer, list []cities.City) error {
	headers := make([]string, 0, len(tableColumns))
	for _, col := range tableColumns {
		headers = append(headers, strings.ToUpper(col.Label))
	}
	rows := make([][]string, 0, len(list))
	for _, city := range list {
		rows = append(rows, []string{city.Name, city.AdminName, strconv.FormatInt(city.Population, 10)})
	}

	populationCol := len(tableColumns) - 1
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderRow(false).
		BorderHeader(true).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := printCellStyle
			if row == table.HeaderRow {
				style = printHeaderStyle
			}
			if col == populationCol {
				return style.Align(lipgloss.Right)
			}
			return style
		})

	_, err := fmt.Fprintln(w, t.String())
	return err
}
