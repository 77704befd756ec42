package importer

import (
	"net/http"
	"strings"
)

// FailureClass is the coarse failure classification used by the result
// reporter.
type FailureClass string

const (
	FailureNotFound     FailureClass = "not found"
	FailureAccessDenied FailureClass = "access denied"
	FailureServerError  FailureClass = "server error"
	FailureOther        FailureClass = "other"
)

// RecordOutcome is the result of one attempted record or URL, in the
// order it was attempted (sequential mode) or completed (concurrent
// mode).
type RecordOutcome struct {
	Identifier string       `json:"identifier"` // URL or title
	Success    bool         `json:"success"`
	Reason     string       `json:"reason,omitempty"`
	Class      FailureClass `json:"class,omitempty"`
}

// ImportResult is the final, immutable summary of an import run.
type ImportResult struct {
	Outcomes          []RecordOutcome `json:"outcomes"`
	SkippedDuplicates []string       `json:"skipped_duplicates,omitempty"`
	Created           int            `json:"created"`
	Failed            int            `json:"failed"`
	Cancelled         bool           `json:"cancelled"`
}

func (r *ImportResult) addSuccess(identifier string) {
	r.Outcomes = append(r.Outcomes, RecordOutcome{Identifier: identifier, Success: true})
	r.Created++
}

func (r *ImportResult) addFailure(identifier string, err error) {
	r.Outcomes = append(r.Outcomes, RecordOutcome{
		Identifier: identifier,
		Success:    false,
		Reason:     err.Error(),
		Class:      ClassifyFailure(err),
	})
	r.Failed++
}

// Summary is the reporter's rendering of an ImportResult: counts plus
// failures grouped by coarse classification.
type Summary struct {
	Succeeded         int                       `json:"succeeded"`
	Failed            int                       `json:"failed"`
	SkippedDuplicates int                       `json:"skipped_duplicates"`
	Cancelled         bool                      `json:"cancelled"`
	FailuresByClass   map[FailureClass][]string `json:"failures_by_class,omitempty"`
}

// Summarize renders the result for display.
func Summarize(result *ImportResult) Summary {
	s := Summary{
		Succeeded:         result.Created,
		Failed:            result.Failed,
		SkippedDuplicates: len(result.SkippedDuplicates),
		Cancelled:         result.Cancelled,
	}
	for _, o := range result.Outcomes {
		if o.Success {
			continue
		}
		if s.FailuresByClass == nil {
			s.FailuresByClass = make(map[FailureClass][]string)
		}
		class := o.Class
		if class == "" {
			class = FailureOther
		}
		s.FailuresByClass[class] = append(s.FailuresByClass[class], o.Identifier)
	}
	return s
}

// ClassifyFailure derives the coarse failure class from an HTTP status
// code (when the error carries one) or from the error message.
func ClassifyFailure(err error) FailureClass {
	if err == nil {
		return ""
	}

	switch status := StatusCodeOf(err); {
	case status == http.StatusNotFound:
		return FailureNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return FailureAccessDenied
	case status >= 500:
		return FailureServerError
	case status != 0:
		return FailureOther
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "not found") || strings.Contains(msg, "404"):
		return FailureNotFound
	case strings.Contains(msg, "forbidden") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "access denied"):
		return FailureAccessDenied
	case strings.Contains(msg, "server error") || strings.Contains(msg, "500") || strings.Contains(msg, "502") || strings.Contains(msg, "503"):
		return FailureServerError
	default:
		return FailureOther
	}
}
