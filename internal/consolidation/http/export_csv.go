package http

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/groundwork-re/groundwork/internal/consolidation"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

type csvStreamer struct {
	buf          *bufio.Writer
	csv          *csv.Writer
	flushEvery   int
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	return &csvStreamer{buf: buf, csv: writer, flushEvery: csvFlushEvery}
}

func (s *csvStreamer) writeComment(line string) error {
	if s == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	if !strings.HasSuffix(line, "\r\n") {
		line = strings.TrimSuffix(line, "\n")
		line += "\r\n"
	}
	_, err := s.buf.WriteString(line)
	return err
}

func (s *csvStreamer) writeRow(row []string) error {
	if s == nil || s.csv == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pendingLines++
	if s.flushEvery > 0 && s.pendingLines >= s.flushEvery {
		return s.Flush()
	}
	return nil
}

func (s *csvStreamer) Flush() error {
	if s == nil || s.csv == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pendingLines = 0
	return nil
}

func (s *csvStreamer) Close() error {
	return s.Flush()
}

// writeTrialBalanceCSV streams the consolidated trial balance with one row
// per merged account line and a trailing totals block.
func writeTrialBalanceCSV(w io.Writer, tb consolidation.TrialBalance) error {
	streamer := newCSVStreamer(w)
	if err := streamer.writeComment("# Report: Consolidated Trial Balance"); err != nil {
		return err
	}
	if err := streamer.writeComment(fmt.Sprintf("# Root: %s (%d) | Generated: %s | Members: %d", tb.RootName, tb.RootID, tb.GeneratedAt.Format("2006-01-02 15:04:05"), len(tb.Members))); err != nil {
		return err
	}
	if len(tb.Warnings) == 0 {
		if err := streamer.writeComment("# Warnings: none"); err != nil {
			return err
		}
	} else {
		joined := make([]string, len(tb.Warnings))
		for i, warning := range tb.Warnings {
			joined[i] = strings.TrimSpace(warning)
		}
		if err := streamer.writeComment("# Warnings: " + strings.Join(joined, "; ")); err != nil {
			return err
		}
	}
	if err := streamer.writeRow([]string{"Account", "Name", "Type", "Entity", "Ownership %", "Raw Balance", "Scaled Balance"}); err != nil {
		return err
	}
	for _, line := range tb.Accounts {
		if err := streamer.writeRow([]string{
			line.Number,
			line.Name,
			string(line.Type),
			"",
			"",
			"",
			formatDecimal(line.TotalBalance),
		}); err != nil {
			return err
		}
		for _, contribution := range line.Contributions {
			if err := streamer.writeRow([]string{
				line.Number,
				"",
				"",
				contribution.EntityName,
				fmt.Sprintf("%.4f", contribution.OwnershipPct),
				formatDecimal(contribution.RawBalance),
				formatDecimal(contribution.ScaledBalance),
			}); err != nil {
				return err
			}
		}
	}
	if err := streamer.writeRow([]string{"", "", "", "", "", "", ""}); err != nil {
		return err
	}
	totalsRows := [][]string{
		{"Totals", "", "Debits", "", "", "", formatDecimal(tb.TotalDebits)},
		{"Totals", "", "Credits", "", "", "", formatDecimal(tb.TotalCredits)},
		{"Totals", "", "Pending Eliminations", "", "", "", formatDecimal(tb.PendingEliminationTotal)},
	}
	for _, row := range totalsRows {
		if err := streamer.writeRow(row); err != nil {
			return err
		}
	}
	return streamer.Close()
}

func formatDecimal(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
