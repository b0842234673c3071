package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"sjsage522/oddsworker/internal/odds"
)

// topFavorites is how many win odds the console summary lists
const topFavorites = 3

func saveRecord(dir string, rec odds.RaceOddsRecord) error {
	return writeJSON(filepath.Join(dir, fmt.Sprintf("odds_%s.json", rec.RaceID)), rec)
}

func saveReport(dir string, report odds.DailyOddsReport) error {
	return writeJSON(filepath.Join(dir, fmt.Sprintf("daily_odds_%s.json", report.Date)), report)
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func printRecord(w io.Writer, rec odds.RaceOddsRecord) {
	fmt.Fprintf(w, "%s %s (%s) [%s]\n", rec.RaceID, rec.RaceName, rec.PostTime, rec.Status)
	if !rec.OK() {
		fmt.Fprintf(w, "  %s\n", rec.Message)
		return
	}

	horses := rec.Win.Horses()
	sort.SliceStable(horses, func(i, j int) bool {
		return rec.Win[horses[i]] < rec.Win[horses[j]]
	})
	for i, h := range horses {
		if i == topFavorites {
			break
		}
		fmt.Fprintf(w, "  #%d win %.1f", h, rec.Win[h])
		if p, ok := rec.Place[h]; ok {
			fmt.Fprintf(w, " place %.2f", p)
		}
		fmt.Fprintln(w)
	}
	for _, pair := range rec.Quinella.Pairs() {
		fmt.Fprintf(w, "  quinella %s %.1f\n", pair, rec.Quinella[pair])
	}
	fmt.Fprintf(w, "  win %d, place %d, quinella %d\n", len(rec.Win), len(rec.Place), len(rec.Quinella))
}

func printReport(w io.Writer, report odds.DailyOddsReport) {
	fmt.Fprintf(w, "%s: %s (%s)\n", report.Date, report.Message, report.Status)
	for _, rec := range report.Races {
		printRecord(w, rec)
	}
}
