package importer

import (
	"fmt"
	"strings"

	"github.com/containerhub/containerhub/internal/entities"
)

// voiceColumns maps the fixed positional layout of voice-agent CSV
// exports: columns 0-11 carry these semantic roles in order.
var voiceColumns = []string{
	"name",
	"description",
	"prompt",
	"first_message",
	"voice_provider",
	"voice_id",
	"language",
	"industry",
	"department",
	"use_case",
	"tags",
	"website",
}

// urlHeaderTokens are the header-name heuristics used to locate the URL
// column for non-voice CSV imports.
var urlHeaderTokens = []string{"url", "link", "source", "app"}

// ParseCSV parses a CSV payload into source records. For voice imports
// the columns are positional; for other types the URL column is located
// by header-name heuristic and the remaining columns are keyed by their
// header names.
func ParseCSV(payload []byte, itemType entities.ItemType, origin SourceOrigin) ([]ImportSourceRecord, error) {
	rows := splitCSV(string(payload))
	if len(rows) < 2 {
		return nil, &MalformedInputError{Format: "csv", Reason: "need a header row and at least one data row"}
	}

	header := rows[0]
	data := rows[1:]

	if itemType == entities.ItemTypeVoice {
		return voiceRows(data, origin), nil
	}

	urlCol := findURLColumn(header)
	if urlCol < 0 {
		return nil, &MalformedInputError{
			Format: "csv",
			Line:   1,
			Reason: fmt.Sprintf("no URL-bearing column found (looked for %s)", strings.Join(urlHeaderTokens, "|")),
		}
	}

	records := make([]ImportSourceRecord, 0, len(data))
	for i, row := range data {
		fields := make(map[string]string, len(header))
		for col, name := range header {
			key := strings.ToLower(strings.TrimSpace(name))
			if key == "" || col >= len(row) {
				continue
			}
			fields[key] = strings.TrimSpace(row[col])
		}
		if urlCol < len(row) {
			fields["url"] = strings.TrimSpace(row[urlCol])
		}
		records = append(records, ImportSourceRecord{
			Fields: fields,
			Origin: origin,
			Index:  i + 1, // header is row 0
		})
	}
	return records, nil
}

func voiceRows(data [][]string, origin SourceOrigin) []ImportSourceRecord {
	records := make([]ImportSourceRecord, 0, len(data))
	for i, row := range data {
		fields := make(map[string]string, len(voiceColumns))
		for col, key := range voiceColumns {
			if col < len(row) {
				fields[key] = strings.TrimSpace(row[col])
			}
		}
		records = append(records, ImportSourceRecord{
			Fields: fields,
			Origin: origin,
			Index:  i + 1,
		})
	}
	return records
}

// findURLColumn locates the URL-bearing column in a header row, matching
// any of url|link|source|app case-insensitively. Returns -1 when absent.
func findURLColumn(header []string) int {
	for i, name := range header {
		lower := strings.ToLower(strings.TrimSpace(name))
		for _, token := range urlHeaderTokens {
			if strings.Contains(lower, token) {
				return i
			}
		}
	}
	return -1
}

// splitCSV is a character-level CSV reader. It respects double-quoted
// fields, un-escapes doubled quotes, allows embedded newlines inside
// quoted fields, and treats \r\n as a single row terminator. Rows that
// are entirely empty are dropped.
func splitCSV(text string) [][]string {
	var rows [][]string
	var row []string
	var field strings.Builder
	inQuotes := false

	runes := []rune(text)
	endField := func() {
		row = append(row, field.String())
		field.Reset()
	}
	endRow := func() {
		endField()
		empty := true
		for _, f := range row {
			if strings.TrimSpace(f) != "" {
				empty = false
				break
			}
		}
		if !empty {
			rows = append(rows, row)
		}
		row = nil
	}

	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case inQuotes:
			if ch == '"' {
				if i+1 < len(runes) && runes[i+1] == '"' {
					// doubled quote: literal "
					field.WriteRune('"')
					i++
				} else {
					inQuotes = false
				}
			} else {
				field.WriteRune(ch)
			}
		case ch == '"':
			inQuotes = true
		case ch == ',':
			endField()
		case ch == '\r':
			if i+1 < len(runes) && runes[i+1] == '\n' {
				i++ // \r\n is one terminator
			}
			endRow()
		case ch == '\n':
			endRow()
		default:
			field.WriteRune(ch)
		}
	}
	if field.Len() > 0 || len(row) > 0 {
		endRow()
	}

	return rows
}
