package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sean-rowe/weather-history-service/internal/core/domain"
)

// Supported export formats.
const (
	ExportJSON     = "json"
	ExportCSV      = "csv"
	ExportMarkdown = "markdown"
)

var exportColumns = []string{
	"id", "raw_query", "resolved_name", "country", "lat", "lon",
	"start_date", "end_date", "date", "tmin", "tmax", "tavg",
}

// exportRow is one daily record flattened together with its parent request.
type exportRow struct {
	ID           int64   `json:"id"`
	RawQuery     string  `json:"raw_query"`
	ResolvedName string  `json:"resolved_name"`
	Country      string  `json:"country"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	Date         string  `json:"date"`
	TMin         float64 `json:"tmin"`
	TMax         float64 `json:"tmax"`
	TAvg         float64 `json:"tavg"`
}

func (r exportRow) values() []string {
	return []string{
		strconv.FormatInt(r.ID, 10),
		r.RawQuery,
		r.ResolvedName,
		r.Country,
		formatFloat(r.Lat),
		formatFloat(r.Lon),
		r.StartDate,
		r.EndDate,
		r.Date,
		formatFloat(r.TMin),
		formatFloat(r.TMax),
		formatFloat(r.TAvg),
	}
}

// Export renders every stored daily record in the requested format.
// An empty format defaults to JSON.
func (s *requestService) Export(ctx context.Context, format string) (*domain.Export, error) {
	format = strings.ToLower(strings.TrimSpace(format))

	if format == "" {
		format = ExportJSON
	}

	if format == "md" {
		format = ExportMarkdown
	}

	if format != ExportJSON && format != ExportCSV && format != ExportMarkdown {
		return nil, &domain.WeatherError{
			Code:    domain.CodeInvalidExport,
			Message: fmt.Sprintf("Unsupported export format %q (use json, csv or markdown)", format),
		}
	}

	reqs, err := s.List(ctx)

	if err != nil {
		return nil, err
	}

	rows := flatten(reqs)

	var export *domain.Export

	switch format {
	case ExportCSV:
		export, err = renderCSV(rows)
	case ExportMarkdown:
		export = renderMarkdown(rows)
	default:
		export, err = renderJSON(rows)
	}

	if err != nil {
		s.logger.Error("failed to render export", zap.String("format", format), zap.Error(err))

		return nil, &domain.WeatherError{
			Code:    domain.CodePersistenceFailure,
			Message: "Failed to render export",
			Cause:   err,
		}
	}

	s.logger.Info("weather requests exported",
		zap.String("format", format),
		zap.Int("rows", len(rows)))

	return export, nil
}

func flatten(reqs []domain.WeatherRequest) []exportRow {
	rows := make([]exportRow, 0, len(reqs))

	for _, req := range reqs {
		for _, day := range req.Days {
			rows = append(rows, exportRow{
				ID:           req.ID,
				RawQuery:     req.RawQuery,
				ResolvedName: req.ResolvedName,
				Country:      req.Country,
				Lat:          req.Latitude,
				Lon:          req.Longitude,
				StartDate:    req.StartDate.Format(domain.DateLayout),
				EndDate:      req.EndDate.Format(domain.DateLayout),
				Date:         day.Date.Format(domain.DateLayout),
				TMin:         day.MinTemperature,
				TMax:         day.MaxTemperature,
				TAvg:         day.MeanTemperature,
			})
		}
	}

	return rows
}

func renderJSON(rows []exportRow) (*domain.Export, error) {
	body, err := json.MarshalIndent(rows, "", "  ")

	if err != nil {
		return nil, err
	}

	return &domain.Export{
		Filename:    "weather_data.json",
		ContentType: "application/json",
		Body:        body,
	}, nil
}

func renderCSV(rows []exportRow) (*domain.Export, error) {
	var buf bytes.Buffer

	w := csv.NewWriter(&buf)

	if err := w.Write(exportColumns); err != nil {
		return nil, err
	}

	for _, row := range rows {
		if err := w.Write(row.values()); err != nil {
			return nil, err
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return nil, err
	}

	return &domain.Export{
		Filename:    "weather_data.csv",
		ContentType: "text/csv",
		Body:        buf.Bytes(),
	}, nil
}

func renderMarkdown(rows []exportRow) *domain.Export {
	var b strings.Builder

	separators := make([]string, len(exportColumns))

	for i := range separators {
		separators[i] = "---"
	}

	writeMarkdownRow(&b, exportColumns)
	writeMarkdownRow(&b, separators)

	for _, row := range rows {
		writeMarkdownRow(&b, row.values())
	}

	return &domain.Export{
		Filename:    "weather_data.md",
		ContentType: "text/markdown",
		Body:        []byte(b.String()),
	}
}

func writeMarkdownRow(b *strings.Builder, cells []string) {
	escaped := make([]string, len(cells))

	for i, cell := range cells {
		escaped[i] = strings.ReplaceAll(cell, "|", `\|`)
	}

	b.WriteString("| ")
	b.WriteString(strings.Join(escaped, " | "))
	b.WriteString(" |\n")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
