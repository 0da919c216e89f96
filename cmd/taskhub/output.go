package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/tgienger/taskhub/internal/apperr"
	"github.com/tgienger/taskhub/internal/ui/styles"
)

const dateLayout = "2006-01-02"

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.Current.Primary).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// printTable writes rows under headers with a rounded border.
func printTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.Current.Border)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(dateLayout)
}

// parseDate reads a YYYY-MM-DD flag value as midnight UTC.
func parseDate(flag, s string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must look like %s", flag, dateLayout)
	}
	return d, nil
}

// describe renders an error for the terminal.
func describe(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindUnauthenticated:
		return errNotSignedIn.Error()
	case apperr.KindRemote:
		return "storage error: " + err.Error()
	}
	return err.Error()
}
