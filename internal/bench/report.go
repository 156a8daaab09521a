// File: internal/bench/report.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package bench

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/sugawarayuuta/sonnet"
	"golang.org/x/term"

	"github.com/momentics/hioload-pool/internal/config"
)

const (
	primaryColor = "#7D56F4"
	dimColor     = "#626262"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(primaryColor)).
			Bold(true).
			Padding(0, 1)
	cellStyle = lipgloss.NewStyle().Padding(0, 1)
	bestStyle = cellStyle.
			Foreground(lipgloss.Color(primaryColor)).
			Bold(true)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(dimColor))
)

// IsTTY reports whether stdout is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ResolveFormat turns "auto" into table on a terminal and JSON otherwise.
func ResolveFormat(format string, tty bool) string {
	if format != config.FormatAuto && format != "" {
		return format
	}
	if tty {
		return config.FormatTable
	}
	return config.FormatJSON
}

// Write renders results to w in format ("table" or "json").
func Write(w io.Writer, format string, results []Result) error {
	switch format {
	case config.FormatJSON:
		return WriteJSON(w, results)
	case config.FormatTable:
		_, err := fmt.Fprintln(w, Table(results))
		return err
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteJSON encodes results as one JSON document.
func WriteJSON(w io.Writer, results []Result) error {
	if results == nil {
		results = []Result{}
	}
	data, err := sonnet.Marshal(results)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Summary is the per-strategy aggregate of a run.
type Summary struct {
	Strategy  string
	Runs      int
	Workers   int
	BestTotal time.Duration
	MeanTotal time.Duration
	MeanPush  time.Duration
	Rate      float64 // tasks per second of the best run
}

// Summarize aggregates results per strategy, fastest first.
func Summarize(results []Result) []Summary {
	byName := make(map[string]*Summary)
	var order []string
	for _, r := range results {
		s, ok := byName[r.Strategy]
		if !ok {
			s = &Summary{Strategy: r.Strategy, Workers: r.Workers, BestTotal: r.Total}
			byName[r.Strategy] = s
			order = append(order, r.Strategy)
		}
		s.Runs++
		s.MeanTotal += r.Total
		s.MeanPush += r.Push
		if r.Total <= s.BestTotal {
			s.BestTotal = r.Total
			s.Rate = r.Throughput()
		}
	}
	out := make([]Summary, 0, len(order))
	for _, name := range order {
		s := byName[name]
		s.MeanTotal /= time.Duration(s.Runs)
		s.MeanPush /= time.Duration(s.Runs)
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].BestTotal < out[j].BestTotal })
	return out
}

// Table renders the per-strategy summary. The fastest strategy is
// highlighted.
func Table(results []Result) string {
	sums := Summarize(results)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("strategy", "workers", "runs", "best", "mean", "mean push", "tasks/s").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == 0:
				return bestStyle
			default:
				return cellStyle
			}
		})
	for _, s := range sums {
		t.Row(
			s.Strategy,
			strconv.Itoa(s.Workers),
			strconv.Itoa(s.Runs),
			round(s.BestTotal).String(),
			round(s.MeanTotal).String(),
			round(s.MeanPush).String(),
			strconv.FormatFloat(s.Rate, 'f', 0, 64),
		)
	}
	return t.Render()
}

func round(d time.Duration) time.Duration {
	switch {
	case d >= time.Second:
		return d.Round(time.Millisecond)
	case d >= time.Millisecond:
		return d.Round(time.Microsecond)
	default:
		return d
	}
}
