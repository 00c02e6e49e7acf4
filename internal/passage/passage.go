// Package passage parses and formats corpus passages of the form
// « TITLE » « SECTION_PATH » BODY, as produced by the Wikipedia scrape
// used for attribution corpora.
package passage

import (
	"fmt"
	"regexp"
	"strings"
)

var passageFormat = regexp.MustCompile("^« ([^»]*) » « ([^»]*) » (.*)")

// Parsed holds the structured fields of a passage. Matched reports whether
// the raw text followed the expected template; when false, only Raw is
// meaningful and formatters fall back to returning it unchanged.
type Parsed struct {
	Matched  bool
	Title    string
	Sections string
	Body     string
	Raw      string
}

// Parse splits a passage into title, section path and body. It never fails:
// a passage that does not match the template is returned with Matched=false.
func Parse(raw string) Parsed {
	m := passageFormat.FindStringSubmatch(raw)
	if m == nil {
		return Parsed{Raw: raw}
	}
	return Parsed{
		Matched:  true,
		Title:    m[1],
		Sections: m[2],
		Body:     m[3],
		Raw:      raw,
	}
}

// ForInference renders a passage as the premise text for NLI classification:
// the section path followed by the body, e.g.
//
//	Luke Cage (season 2), Release. The second season of Luke Cage was
//	released on June 22, 2018, on the streaming service Netflix worldwide.
//
// Unparseable passages are returned unchanged.
func ForInference(raw string) string {
	p := Parse(raw)
	if !p.Matched {
		return raw
	}
	return fmt.Sprintf("%s. %s", p.Sections, p.Body)
}

// ForDisplay renders a passage in the human-readable AIS template:
//
//	Title: Luke Cage (season 2)
//	Section: Release
//
//	The second season of Luke Cage was released on June 22, 2018, ...
//
// The Section line is omitted when the section path is exactly the title.
// When the section path does not start with the title (rare, e.g.
// « Chrysler 300 letter series » « First Generation, 1955 C-300 » ...) the
// whole path is shown; otherwise the leading "TITLE, " is stripped. The
// prefix test is a literal string prefix, not token-aware.
// Unparseable passages are returned unchanged.
func ForDisplay(raw string) string {
	p := Parse(raw)
	if !p.Matched {
		return raw
	}

	lines := []string{fmt.Sprintf("Title: %s", p.Title)}
	if !strings.HasPrefix(p.Sections, p.Title) {
		lines = append(lines, fmt.Sprintf("Section: %s", p.Sections))
	} else if len(p.Sections) > len(p.Title) {
		// 2 characters follow the title in the section path: ", "
		lines = append(lines, fmt.Sprintf("Section: %s", p.Sections[len(p.Title)+2:]))
	}
	lines = append(lines, "", p.Body)
	return strings.Join(lines, "\n")
}
