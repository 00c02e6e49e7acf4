package passage

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		matched  bool
		title    string
		sections string
		body     string
	}{
		{
			name:     "full template",
			raw:      "« Luke Cage (season 2) » « Luke Cage (season 2), Release » The second season was released on Netflix.",
			matched:  true,
			title:    "Luke Cage (season 2)",
			sections: "Luke Cage (season 2), Release",
			body:     "The second season was released on Netflix.",
		},
		{
			name:     "section equals title",
			raw:      "« X » « X » body",
			matched:  true,
			title:    "X",
			sections: "X",
			body:     "body",
		},
		{
			name:    "plain text falls through",
			raw:     "just some prose with no markers",
			matched: false,
		},
		{
			name:    "empty string",
			raw:     "",
			matched: false,
		},
		{
			name:    "single marker pair only",
			raw:     "« Title » trailing text",
			matched: false,
		},
		{
			name:    "text before first marker",
			raw:     "see also « T » « T, Sec » body",
			matched: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Parse(tt.raw)
			if p.Matched != tt.matched {
				t.Fatalf("Parse(%q).Matched = %v, want %v", tt.raw, p.Matched, tt.matched)
			}
			if p.Raw != tt.raw {
				t.Errorf("Raw = %q, want %q", p.Raw, tt.raw)
			}
			if !tt.matched {
				return
			}
			if p.Title != tt.title {
				t.Errorf("Title = %q, want %q", p.Title, tt.title)
			}
			if p.Sections != tt.sections {
				t.Errorf("Sections = %q, want %q", p.Sections, tt.sections)
			}
			if p.Body != tt.body {
				t.Errorf("Body = %q, want %q", p.Body, tt.body)
			}
		})
	}
}

func TestForInference(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "title dropped, sections kept",
			raw:  "« Luke Cage (season 2) » « Luke Cage (season 2), Release » The second season was released.",
			want: "Luke Cage (season 2), Release. The second season was released.",
		},
		{
			name: "non-matching passage unchanged",
			raw:  "free-form passage",
			want: "free-form passage",
		},
		{
			name: "leading text before markers unchanged",
			raw:  "see also « T » « T, Sec » body",
			want: "see also « T » « T, Sec » body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ForInference(tt.raw); got != tt.want {
				t.Errorf("ForInference(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestForInferenceStripsMarkers(t *testing.T) {
	raw := "« A Title » « A Title, Section » some body text"
	got := ForInference(raw)
	if strings.ContainsAny(got, "«»") {
		t.Errorf("ForInference output still contains passage markers: %q", got)
	}
}

func TestForDisplay(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "section equals title, Section line omitted",
			raw:  "« X » « X » body",
			want: "Title: X\n\nbody",
		},
		{
			name: "section extends title, prefix stripped",
			raw:  "« X » « X, Y » body",
			want: "Title: X\nSection: Y\n\nbody",
		},
		{
			name: "section does not start with title, full path shown",
			raw:  "« A » « B, C » body",
			want: "Title: A\nSection: B, C\n\nbody",
		},
		{
			name: "title is substring but not prefix of section",
			raw:  "« 300 » « Chrysler 300, First Generation » body",
			want: "Title: 300\nSection: Chrysler 300, First Generation\n\nbody",
		},
		{
			name: "non-matching passage unchanged",
			raw:  "free-form passage",
			want: "free-form passage",
		},
		{
			name: "leading text before markers unchanged",
			raw:  "see also « T » « T, Sec » body",
			want: "see also « T » « T, Sec » body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ForDisplay(tt.raw); got != tt.want {
				t.Errorf("ForDisplay(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestForDisplayStartsWithTitle(t *testing.T) {
	raws := []string{
		"« Alpha » « Alpha, Beta » body",
		"« Alpha » « Gamma » body",
		"« » «  » body",
	}
	for _, raw := range raws {
		got := ForDisplay(raw)
		if !strings.HasPrefix(got, "Title: ") {
			t.Errorf("ForDisplay(%q) = %q, want prefix %q", raw, got, "Title: ")
		}
	}
}

func FuzzParse(f *testing.F) {
	f.Add("« T » « T, S » body")
	f.Add("« » « » ")
	f.Add("no markers at all")
	f.Add("« unbalanced")
	f.Add("prefix « T » « T » body")

	f.Fuzz(func(t *testing.T, raw string) {
		p := Parse(raw)
		if p.Raw != raw {
			t.Fatalf("Parse must preserve raw input: got %q, want %q", p.Raw, raw)
		}
		// Formatters must never panic and must pass through unmatched input.
		inf := ForInference(raw)
		disp := ForDisplay(raw)
		if !p.Matched && (inf != raw || disp != raw) {
			t.Fatalf("unmatched passage must pass through unchanged: inf=%q disp=%q", inf, disp)
		}
	})
}
