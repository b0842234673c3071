package resolver

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"sjsage522/oddsworker/helpers"
	"sjsage522/oddsworker/internal/race"
	"sjsage522/oddsworker/logger"
	apperrors "sjsage522/oddsworker/pkg/errors"
)

const (
	populationFile = "population.csv"
	timeTableFile  = "time_table_%s.csv"
)

// FileResolver reads tab-separated race tables from a directory:
// population.csv (date, race_id) first, then time_table_YYYYMMDD.csv.
type FileResolver struct {
	dir      string
	encoding string
	log      *logger.Logger
}

// NewFileResolver creates a resolver over dir. encoding names the charset
// used for files that are not UTF-8.
func NewFileResolver(dir, encoding string) *FileResolver {
	return &FileResolver{
		dir:      dir,
		encoding: encoding,
		log:      logger.ForResolver(),
	}
}

// RaceIDs returns identifiers for a normalized YYYYMMDD date in file order
// without duplicates. No matching file yields an empty slice and no error.
func (r *FileResolver) RaceIDs(ctx context.Context, date string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewResolver(date, "canceled", err)
	}

	ids, found, err := r.fromPopulation(date)
	if err != nil {
		return nil, err
	}
	if found && len(ids) > 0 {
		r.log.Debug().Str("date", date).Int("races", len(ids)).Str("source", populationFile).Msg("Resolved races")
		return ids, nil
	}

	ids, found, err = r.fromTimeTable(date)
	if err != nil {
		return nil, err
	}
	if found {
		r.log.Debug().Str("date", date).Int("races", len(ids)).Str("source", fmt.Sprintf(timeTableFile, date)).Msg("Resolved races")
		return ids, nil
	}

	r.log.Info().Str("date", date).Str("dir", r.dir).Msg("No race table for date")
	return []string{}, nil
}

func (r *FileResolver) fromPopulation(date string) ([]string, bool, error) {
	rows, header, found, err := r.readTable(populationFile)
	if err != nil || !found {
		return nil, found, r.wrap(date, populationFile, err)
	}

	dateCol, ok := header["date"]
	if !ok {
		return nil, true, apperrors.NewResolver(date, populationFile+": missing date column", nil)
	}
	idCol, ok := header["race_id"]
	if !ok {
		return nil, true, apperrors.NewResolver(date, populationFile+": missing race_id column", nil)
	}

	dashed := race.DashedDate(date)
	var picked [][]string
	for _, row := range rows {
		if matchesDate(cell(row, dateCol), dashed) {
			picked = append(picked, row)
		}
	}
	return uniqueColumn(picked, idCol), true, nil
}

func (r *FileResolver) fromTimeTable(date string) ([]string, bool, error) {
	name := fmt.Sprintf(timeTableFile, date)
	rows, header, found, err := r.readTable(name)
	if err != nil || !found {
		return nil, found, r.wrap(date, name, err)
	}

	idCol, ok := header["race_id"]
	if !ok {
		return nil, true, apperrors.NewResolver(date, name+": missing race_id column", nil)
	}
	return uniqueColumn(rows, idCol), true, nil
}

// readTable returns data rows and a column index keyed by header name.
func (r *FileResolver) readTable(name string) ([][]string, map[string]int, bool, error) {
	data, err := helpers.ReadFileUTF8(filepath.Join(r.dir, name), r.encoding)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, true, err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headerRow, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, map[string]int{}, true, nil
	}
	if err != nil {
		return nil, nil, true, err
	}

	header := make(map[string]int, len(headerRow))
	for i, col := range headerRow {
		header[strings.TrimSpace(col)] = i
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, true, err
	}
	return rows, header, true, nil
}

func (r *FileResolver) wrap(date, name string, err error) error {
	if err == nil {
		return nil
	}
	return apperrors.NewResolver(date, "read "+name, err)
}

// matchesDate accepts "2025-01-13" and timestamp forms such as "2025-01-13 00:00:00"
func matchesDate(value, dashed string) bool {
	return value == dashed ||
		strings.HasPrefix(value, dashed+" ") ||
		strings.HasPrefix(value, dashed+"T")
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func uniqueColumn(rows [][]string, col int) []string {
	seen := make(map[string]bool, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		id := cell(row, col)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// Static is a resolver backed by a fixed table, used for single-date runs from
// explicit identifiers and in tests.
type Static map[string][]string

// RaceIDs returns the identifiers stored for date
func (s Static) RaceIDs(_ context.Context, date string) ([]string, error) {
	return append([]string{}, s[date]...), nil
}
