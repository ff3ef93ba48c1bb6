// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"regexp"
	"strings"
)

// PatternExtractor is the default extraction strategy: regular expressions
// over the analysis text. Brittle against phrasing drift, which is why it
// sits behind the Extractor interface.
type PatternExtractor struct{}

// NewPatternExtractor returns the default strategy.
func NewPatternExtractor() *PatternExtractor { return &PatternExtractor{} }

// listLinePattern matches numbered or bulleted lines: "1. ...", "2) ...",
// "- ...", "* ...", "・...".
var listLinePattern = regexp.MustCompile(`^\s*(?:\d+[.)]\s+|[-*•]\s+|・)(.+)$`)

// headerPattern matches section-header-like lines: Markdown headings,
// "Technology:", "## Market", bracketed headers.
var headerPattern = regexp.MustCompile(`^\s*(?:#{1,4}\s*)?(?:\*\*)?([\p{L}\p{N} /&-]{2,40})(?:\*\*)?\s*[:：]?\s*$`)

// topicMarkers flag lines proposing further investigation.
var topicMarkers = []string{
	"further", "investigate", "follow-up", "follow up", "worth exploring",
	"future", "next step", "調査", "検討", "今後", "深掘り",
}

// categoryKeywords maps header keywords to the fixed category buckets.
// Ordered so a header matching several buckets lands deterministically.
var categoryKeywords = []struct {
	name     string
	keywords []string
}{
	{"technology", []string{"technology", "technical", "tech", "技術"}},
	{"market", []string{"market", "industry", "business", "市場", "業界"}},
	{"applications", []string{"application", "use case", "adoption", "応用", "活用"}},
	{"challenges", []string{"challenge", "risk", "limitation", "problem", "課題", "リスク"}},
}

// Insights extracts up to max numbered or bulleted lines.
func (PatternExtractor) Insights(text string, max int) []string {
	var insights []string
	for _, line := range strings.Split(text, "\n") {
		m := listLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		insight := strings.TrimSpace(m[1])
		if insight == "" {
			continue
		}
		insights = append(insights, insight)
		if len(insights) >= max {
			break
		}
	}
	return insights
}

// RelatedTopics extracts up to max lines containing investigative markers.
func (PatternExtractor) RelatedTopics(text string, max int) []string {
	var topics []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		for _, marker := range topicMarkers {
			if strings.Contains(lower, marker) {
				if m := listLinePattern.FindStringSubmatch(trimmed); m != nil {
					trimmed = strings.TrimSpace(m[1])
				}
				topics = append(topics, trimmed)
				break
			}
		}
		if len(topics) >= max {
			break
		}
	}
	return topics
}

// Categories splits the text into the fixed category buckets by matching
// section-header-like lines and accumulating subsequent lines until the next
// header.
func (PatternExtractor) Categories(text string) map[string]string {
	categories := make(map[string]string)
	current := ""
	var body []string

	flush := func() {
		if current == "" {
			return
		}
		content := strings.TrimSpace(strings.Join(body, "\n"))
		if content != "" {
			if existing, ok := categories[current]; ok {
				content = existing + "\n" + content
			}
			categories[current] = content
		}
		body = nil
	}

	for _, line := range strings.Split(text, "\n") {
		if name, ok := matchCategoryHeader(line); ok {
			flush()
			current = name
			continue
		}
		if current != "" {
			body = append(body, line)
		}
	}
	flush()

	return categories
}

// matchCategoryHeader reports whether the line looks like a section header
// for one of the fixed categories.
func matchCategoryHeader(line string) (string, bool) {
	m := headerPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	header := strings.ToLower(strings.TrimSpace(m[1]))
	for _, cat := range categoryKeywords {
		for _, kw := range cat.keywords {
			if strings.Contains(header, kw) {
				return cat.name, true
			}
		}
	}
	return "", false
}
