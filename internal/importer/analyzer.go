package importer

import (
	"html"
	"net/url"
	"regexp"
	"strings"
)

// PageAnalysis is the heuristic classification of a fetched page.
type PageAnalysis struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Features    []string `json:"features"`
}

const (
	defaultCategory = "Web Application"

	// minExtractedDescription: an extracted description shorter than this
	// is replaced with a synthesized one.
	minExtractedDescription = 20

	// maxAnalyzedDescription bounds the first-paragraph fallback.
	maxAnalyzedDescription = 150
)

// categoryFamily is one entry of the ordered keyword priority list.
// Earlier families win ties.
type categoryFamily struct {
	category string
	keywords []string
	features []string
}

var categoryFamilies = []categoryFamily{
	{"Drawing & Graphics", []string{"draw", "paint", "canvas", "sketch", "brush", "graphic"}, []string{"drawing tools", "canvas editing"}},
	{"Media & Entertainment", []string{"video", "music", "audio", "player", "stream", "podcast"}, []string{"media playback"}},
	{"Messaging & Chat", []string{"chat", "message", "conversation", "inbox", "reply"}, []string{"real-time messaging"}},
	{"Task Management", []string{"task", "todo", "to-do", "kanban", "backlog", "checklist"}, []string{"task tracking"}},
	{"Scheduling & Calendar", []string{"calendar", "schedule", "appointment", "booking", "meeting"}, []string{"scheduling"}},
	{"Forms & Data Entry", []string{"form", "survey", "submit", "register", "input", "signup"}, []string{"data entry forms"}},
	{"Text & Document Editing", []string{"editor", "document", "write", "notes", "markdown", "wysiwyg"}, []string{"document editing"}},
	{"Analytics & Dashboards", []string{"chart", "graph", "analytics", "dashboard", "report", "metric"}, []string{"data visualization"}},
}

var (
	titleTagRe  = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	headingRe   = regexp.MustCompile(`(?is)<h[1-3][^>]*>(.*?)</h[1-3]>`)
	buttonRe    = regexp.MustCompile(`(?is)<button[^>]*>(.*?)</button>`)
	paragraphRe = regexp.MustCompile(`(?is)<p[^>]*>(.*?)</p>`)
	tagStripRe  = regexp.MustCompile(`(?s)<[^>]*>`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

// AnalyzePage inspects fetched markup and infers a title, description,
// category and feature tags. It never fails: arbitrarily malformed
// markup yields the generic fallback bundle.
func AnalyzePage(markup, sourceURL string) PageAnalysis {
	title := resolveTitle(markup, sourceURL)
	category, features := inferCategory(markup)
	description := resolveDescription(markup, title, category, features)

	return PageAnalysis{
		Title:       title,
		Description: description,
		Category:    category,
		Features:    features,
	}
}

// resolveTitle walks the candidate chain: <title>, Open Graph, Twitter
// card, first heading, then a host-derived fallback. Candidates carrying
// a localhost or index token are discarded in favor of the next one.
func resolveTitle(markup, sourceURL string) string {
	candidates := []string{
		firstMatch(titleTagRe, markup),
		metaContent(markup, "og:title"),
		metaContent(markup, "twitter:title"),
		firstMatch(headingRe, markup),
	}
	for _, c := range candidates {
		c = cleanText(c)
		if c == "" || rejectedTitle(c) {
			continue
		}
		return c
	}
	return hostTitle(sourceURL)
}

func rejectedTitle(title string) bool {
	lower := strings.ToLower(title)
	if strings.Contains(lower, "localhost") {
		return true
	}
	for _, word := range strings.Fields(lower) {
		if strings.Trim(word, ".,:;!?") == "index" {
			return true
		}
	}
	return strings.Contains(lower, "index.htm")
}

func hostTitle(sourceURL string) string {
	if u, err := url.Parse(sourceURL); err == nil && u.Host != "" {
		return titleizeHost(strings.TrimPrefix(u.Host, "www."))
	}
	return "Imported Application"
}

// inferCategory scans headings, button labels and body text against the
// ordered keyword families. The first matching family wins.
func inferCategory(markup string) (string, []string) {
	var labels []string
	for _, m := range headingRe.FindAllStringSubmatch(markup, -1) {
		labels = append(labels, cleanText(m[1]))
	}
	for _, m := range buttonRe.FindAllStringSubmatch(markup, -1) {
		labels = append(labels, cleanText(m[1]))
	}
	haystack := strings.ToLower(strings.Join(labels, " ") + " " + cleanText(markup))

	for _, family := range categoryFamilies {
		for _, kw := range family.keywords {
			if strings.Contains(haystack, kw) {
				return family.category, family.features
			}
		}
	}
	return defaultCategory, nil
}

// resolveDescription walks: meta description, Open Graph, Twitter, first
// paragraph, synthesized sentence. An extracted candidate under 20
// characters is discarded in favor of the next one. Synthesis always
// yields text, so it runs strictly last; any page-derived candidate that
// clears the length floor wins over it.
func resolveDescription(markup, title, category string, features []string) string {
	extracted := firstNonEmpty(
		metaContent(markup, "description"),
		metaContent(markup, "og:description"),
		metaContent(markup, "twitter:description"),
	)
	extracted = cleanText(extracted)
	if len(extracted) >= minExtractedDescription {
		return extracted
	}

	if p := cleanText(firstMatch(paragraphRe, markup)); len(p) >= minExtractedDescription {
		if runes := []rune(p); len(runes) > maxAnalyzedDescription {
			return strings.TrimSpace(string(runes[:maxAnalyzedDescription])) + "…"
		}
		return p
	}

	return synthesizeDescription(markup, title, category, features)
}

func synthesizeDescription(markup, title, category string, features []string) string {
	heading := cleanText(firstMatch(headingRe, markup))
	var b strings.Builder
	b.WriteString(category)
	if len(features) > 0 {
		b.WriteString(" with ")
		b.WriteString(strings.Join(features, ", "))
	}
	if heading != "" && heading != title {
		b.WriteString(", offering ")
		b.WriteString(heading)
	}
	b.WriteString(".")
	return b.String()
}

// metaContent extracts the content of a <meta> tag whose name or property
// attribute equals name. Both attribute orders are handled.
func metaContent(markup, name string) string {
	quoted := regexp.QuoteMeta(name)
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`(?is)<meta[^>]+(?:name|property)\s*=\s*["']` + quoted + `["'][^>]*\scontent\s*=\s*["']([^"']*)["']`),
		regexp.MustCompile(`(?is)<meta[^>]+content\s*=\s*["']([^"']*)["'][^>]*\s(?:name|property)\s*=\s*["']` + quoted + `["']`),
	}
	for _, re := range patterns {
		if m := re.FindStringSubmatch(markup); m != nil {
			return m[1]
		}
	}
	return ""
}

func firstMatch(re *regexp.Regexp, markup string) string {
	if m := re.FindStringSubmatch(markup); m != nil {
		return m[1]
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// cleanText strips tags, unescapes entities and collapses whitespace.
func cleanText(s string) string {
	s = tagStripRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
