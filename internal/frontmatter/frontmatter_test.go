package frontmatter

import (
	"strings"
	"testing"
)

func TestParse_TypedFields(t *testing.T) {
	input := []byte("---\ntitle: \"Guide\"\norder: 2\ntags: [a, b]\n---\n# Body")
	r := Parse(input)
	if r.Meta.Title != "Guide" {
		t.Errorf("title = %q, want %q", r.Meta.Title, "Guide")
	}
	if r.Meta.Order != 2 {
		t.Errorf("order = %d, want 2", r.Meta.Order)
	}
	if len(r.Meta.Tags) != 2 || r.Meta.Tags[0] != "a" || r.Meta.Tags[1] != "b" {
		t.Errorf("tags = %v, want [a b]", r.Meta.Tags)
	}
	if r.Body != "# Body" {
		t.Errorf("body = %q, want %q", r.Body, "# Body")
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	input := []byte("# Just a heading\nSome text.")
	r := Parse(input)
	if r.Meta.Title != DefaultTitle {
		t.Errorf("title = %q, want %q", r.Meta.Title, DefaultTitle)
	}
	if r.Meta.Order != 0 {
		t.Errorf("order = %d, want 0", r.Meta.Order)
	}
	if r.Body != "# Just a heading\nSome text." {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_BlockArrayTags(t *testing.T) {
	input := []byte("---\ntitle: Setup\ntags:\n  - go\n  - docs\n---\ntext")
	r := Parse(input)
	if len(r.Meta.Tags) != 2 || r.Meta.Tags[0] != "go" || r.Meta.Tags[1] != "docs" {
		t.Errorf("tags = %v, want [go docs]", r.Meta.Tags)
	}
}

func TestParse_UnknownKeysRetained(t *testing.T) {
	input := []byte("---\ntitle: X\nauthor: jane\ndraft: true\n---\nbody")
	r := Parse(input)
	if r.Meta.Extra["author"] != "jane" {
		t.Errorf("extra author = %v", r.Meta.Extra["author"])
	}
	if _, ok := r.Meta.Extra["draft"]; !ok {
		t.Error("draft key not retained")
	}
	if _, ok := r.Meta.Extra["title"]; ok {
		t.Error("typed key leaked into extra")
	}
}

func TestParse_OrderCoercion(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  int
	}{
		{"integer", "order: 7", 7},
		{"quoted", `order: "3"`, 3},
		{"garbage", "order: first", 0},
		{"float", "order: 2.9", 2},
		{"absent", "title: x", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Parse([]byte("---\n" + tc.input + "\n---\nbody"))
			if r.Meta.Order != tc.want {
				t.Errorf("order = %d, want %d", r.Meta.Order, tc.want)
			}
		})
	}
}

// Parse must be total: no input may panic or lose the body.
func TestParse_NeverFails(t *testing.T) {
	inputs := []string{
		"",
		"---",
		"---\n",
		"---\ntitle: unclosed",
		"---\n: invalid: yaml: {{{\n---\nBody",
		"--- not a delimiter line\ntext",
		"\n\n---\ntitle: ok\n---\nbody",
	}
	for _, input := range inputs {
		r := Parse([]byte(input))
		if r.Meta.Title == "" {
			t.Errorf("input %q: empty title", input)
		}
	}
}

func TestParse_MissingClosingDelimiterIsBody(t *testing.T) {
	input := "---\ntitle: Trap\nsome text that never closes"
	r := Parse([]byte(input))
	if r.Meta.Title != DefaultTitle {
		t.Errorf("title = %q, want fallback", r.Meta.Title)
	}
	if r.Body != input {
		t.Errorf("body should be the whole file, got %q", r.Body)
	}
}

func TestParse_DelimiterInsideBodyIgnored(t *testing.T) {
	input := "---\ntitle: Real\n---\nbody with\n---\nmore"
	r := Parse([]byte(input))
	if r.Meta.Title != "Real" {
		t.Errorf("title = %q", r.Meta.Title)
	}
	if !strings.HasPrefix(r.Body, "body with") {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_LeadingBlankLinesTrimmedFromBody(t *testing.T) {
	r := Parse([]byte("---\ntitle: T\n---\n\n\n# Heading"))
	if r.Body != "# Heading" {
		t.Errorf("body = %q, want %q", r.Body, "# Heading")
	}
}

func TestParse_DescriptionAndIcon(t *testing.T) {
	r := Parse([]byte("---\ntitle: T\ndescription: 'A short summary'\nicon: \"📘\"\n---\nx"))
	if r.Meta.Description != "A short summary" {
		t.Errorf("description = %q", r.Meta.Description)
	}
	if r.Meta.Icon != "📘" {
		t.Errorf("icon = %q", r.Meta.Icon)
	}
}

// Serializing the typed fields back into a block and reparsing must yield
// the same metadata and body.
func TestParse_RoundTrip(t *testing.T) {
	block := "---\ntitle: Round Trip\ndescription: desc\norder: 5\nicon: \"*\"\ntags: [x, y]\n---\n"
	body := "# Content\n\ntext"
	r := Parse([]byte(block + body))
	if r.Meta.Title != "Round Trip" || r.Meta.Description != "desc" ||
		r.Meta.Order != 5 || r.Meta.Icon != "*" || len(r.Meta.Tags) != 2 {
		t.Errorf("meta = %+v", r.Meta)
	}
	if r.Body != body {
		t.Errorf("body = %q, want %q", r.Body, body)
	}
}
