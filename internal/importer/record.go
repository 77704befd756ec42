package importer

import (
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/containerhub/containerhub/internal/entities"
)

// SourceOrigin identifies where an import payload came from.
type SourceOrigin string

const (
	OriginFile     SourceOrigin = "file"
	OriginURL      SourceOrigin = "url"
	OriginJSON     SourceOrigin = "json"
	OriginBulkURLs SourceOrigin = "bulk-urls"
)

// SourceFormat identifies the declared or sniffed payload format.
type SourceFormat string

const (
	FormatJSON  SourceFormat = "json"
	FormatJSONL SourceFormat = "jsonl"
	FormatCSV   SourceFormat = "csv"
	FormatURL   SourceFormat = "url"
)

const (
	// minBodyChars is the quality gate: a record whose body text is
	// shorter than this is silently skipped, not failed.
	minBodyChars = 50

	// maxDescriptionChars bounds the list-display description. The full
	// text is retained in FullInstructions.
	maxDescriptionChars = 200
)

// ImportSourceRecord is a raw, format-specific record prior to
// normalization. Fields holds the record's key/value pairs under
// canonical lowercase keys; Index is the raw line/row index used for
// error attribution.
type ImportSourceRecord struct {
	Fields map[string]string
	Origin SourceOrigin
	Index  int
}

func (r ImportSourceRecord) field(keys ...string) string {
	for _, k := range keys {
		if v, ok := r.Fields[k]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// NormalizedItem is the canonical record ready for submission.
type NormalizedItem struct {
	Title             string              `json:"title"`
	Description       string              `json:"description"`
	FullInstructions  string              `json:"full_instructions,omitempty"`
	ItemType          entities.ItemType   `json:"item_type"`
	Industry          string              `json:"industry,omitempty"`
	Department        string              `json:"department,omitempty"`
	Visibility        entities.Visibility `json:"visibility"`
	Tags              []string            `json:"tags"`
	SourceURL         string              `json:"source_url,omitempty"`
	IsMarketplaceItem bool                `json:"is_marketplace_item"`
}

// Normalizer converts source records to normalized items, applying the
// quality gate and the title/description invariants.
type Normalizer struct {
	ItemType entities.ItemType
	Format   SourceFormat
	Origin   SourceOrigin

	// Visibility for all produced items; defaults to public.
	Visibility entities.Visibility

	skipped int
}

// Skipped returns how many records the quality gate excluded.
func (n *Normalizer) Skipped() int { return n.skipped }

// Normalize converts records into submission-ready items. Records that
// fail the quality gate are dropped and logged, never surfaced as
// failures.
func (n *Normalizer) Normalize(records []ImportSourceRecord) []NormalizedItem {
	items := make([]NormalizedItem, 0, len(records))
	for _, rec := range records {
		item, ok := n.normalizeOne(rec, len(items))
		if !ok {
			n.skipped++
			log.Printf("import: skipping record %d: body text under %d characters", rec.Index, minBodyChars)
			continue
		}
		items = append(items, item)
	}
	return items
}

func (n *Normalizer) normalizeOne(rec ImportSourceRecord, position int) (NormalizedItem, bool) {
	body := rec.field("prompt", "system_prompt", "instructions", "full_instructions", "description", "body", "content")
	if len(body) < minBodyChars {
		return NormalizedItem{}, false
	}

	sourceURL := strings.TrimSpace(rec.field("url", "source_url", "link", "source", "app", "website"))

	title := rec.field("title", "name")
	if title == "" {
		title = fallbackTitle(n.ItemType, sourceURL, position)
	}

	description := rec.field("description", "summary")
	if description == "" {
		description = body
	}
	full := rec.field("prompt", "system_prompt", "instructions", "full_instructions")
	if full == "" {
		// fullInstructions defaults to the description
		full = description
	}

	visibility := n.Visibility
	if visibility == "" {
		visibility = entities.VisibilityPublic
	}

	item := NormalizedItem{
		Title:             title,
		Description:       truncate(description, maxDescriptionChars),
		FullInstructions:  full,
		ItemType:          n.ItemType,
		Industry:          rec.field("industry"),
		Department:        rec.field("department"),
		Visibility:        visibility,
		Tags:              n.provenanceTags(rec),
		SourceURL:         sourceURL,
		IsMarketplaceItem: true,
	}
	return item, true
}

// provenanceTags builds the ordered tag set: record tags first, then the
// provenance tags every imported item carries.
func (n *Normalizer) provenanceTags(rec ImportSourceRecord) []string {
	var tags []string
	seen := make(map[string]bool)
	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return
		}
		key := strings.ToLower(tag)
		if seen[key] {
			return
		}
		seen[key] = true
		tags = append(tags, tag)
	}

	for _, t := range strings.Split(rec.field("tags"), ",") {
		add(t)
	}
	add("imported")
	if n.Format != "" {
		add(string(n.Format))
	}
	if n.Origin != "" {
		add(string(n.Origin))
	}
	return tags
}

// fallbackTitle generates a title when the source has none: the host name
// of the source URL if available, otherwise a positional placeholder.
func fallbackTitle(itemType entities.ItemType, sourceURL string, position int) string {
	if sourceURL != "" {
		if u, err := url.Parse(sourceURL); err == nil && u.Host != "" {
			host := strings.TrimPrefix(u.Host, "www.")
			if host != "" {
				return titleizeHost(host)
			}
		}
	}
	return fmt.Sprintf("Imported %s %d", titleizeType(itemType), position+1)
}

func titleizeType(t entities.ItemType) string {
	switch t {
	case entities.ItemTypeVoice:
		return "Voice Agent"
	case entities.ItemTypeWorkflow:
		return "Workflow"
	default:
		return "App"
	}
}

// titleizeHost turns "paint.example.com" into "Paint Example".
func titleizeHost(host string) string {
	parts := strings.Split(host, ".")
	if len(parts) > 1 {
		parts = parts[:len(parts)-1] // drop the TLD
	}
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
