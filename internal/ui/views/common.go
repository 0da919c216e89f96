package views

import (
	"errors"
	"strings"
	"time"

	"github.com/tgienger/taskhub/internal/apperr"
	"github.com/tgienger/taskhub/internal/filter"
	"github.com/tgienger/taskhub/internal/repository"
	"github.com/tgienger/taskhub/internal/ui/styles"
)

// dueLayout is how due dates are typed and shown.
const dueLayout = "2006-01-02"

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// ErrorMsg carries a failed repository call back to the view that made it.
type ErrorMsg struct {
	Err error
}

// Unauthenticated reports whether the error means the session is gone.
func (m ErrorMsg) Unauthenticated() bool {
	return apperr.KindOf(m.Err) == apperr.KindUnauthenticated
}

// describeError turns a repository error into one status line.
func describeError(err error) string {
	var linkErr *repository.TagLinkError
	if errors.As(err, &linkErr) {
		if linkErr.RolledBack {
			return "Could not attach tags; the task was not created"
		}
		return "Task saved, but its tags could not be updated"
	}

	var vErr *apperr.ValidationError
	if errors.As(err, &vErr) {
		field := strings.ReplaceAll(vErr.Field, "_", " ")
		if vErr.Reason == "" && field != "" {
			return strings.ToUpper(field[:1]) + field[1:] + " is required"
		}
		return "Invalid " + field + ": " + strings.TrimPrefix(vErr.Reason, "has ")
	}

	switch apperr.KindOf(err) {
	case apperr.KindUnauthenticated:
		return "Signed out. Please sign in again"
	case apperr.KindNotFound:
		return "That item no longer exists"
	case apperr.KindRemote:
		return "Storage error: " + err.Error()
	}
	return err.Error()
}

func renderError(s *styles.Styles, err error) string {
	if err == nil {
		return ""
	}
	return s.ErrorText.Render("✗ " + describeError(err))
}

func formatDue(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dueLayout)
}

// parseDue reads a YYYY-MM-DD date. Blank input means no due date.
func parseDue(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation(dueLayout, s, time.UTC)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// cycleStatus steps a status filter through all, then each value in order.
func cycleStatus[T ~string](current string, values []T) string {
	if current == "" || current == filter.All {
		return string(values[0])
	}
	for i, v := range values {
		if string(v) == current && i+1 < len(values) {
			return string(values[i+1])
		}
	}
	return filter.All
}
