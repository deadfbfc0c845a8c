// Package frontmatter extracts the delimited metadata block from the top of
// a Markdown file. Parsing is total: malformed input never produces an error,
// it degrades to default metadata with the whole file as body.
package frontmatter

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// DefaultTitle is used when a file carries no explicit title.
const DefaultTitle = "Untitled"

// Metadata holds the typed fields parsed from a frontmatter block.
// Keys not covered by a typed field are retained verbatim in Extra.
type Metadata struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Order       int            `json:"order"`
	Icon        string         `json:"icon,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// Result is the output of Parse: metadata plus the Markdown body with the
// frontmatter block removed.
type Result struct {
	Meta Metadata
	Body string
}

// Parse splits raw file content into metadata and body.
//
// The block must open with --- on the first non-blank line and close with a
// line containing only ---. If either delimiter is absent, or the block is
// not valid YAML, the entire (trimmed) content becomes the body and metadata
// falls back to defaults. A stray delimiter inside a code block after the
// header region therefore never poisons the file.
func Parse(data []byte) Result {
	fallback := Result{
		Meta: Metadata{Title: DefaultTitle},
		Body: strings.TrimSpace(string(data)),
	}

	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim+"\n")) && !bytes.HasPrefix(trimmed, []byte(delim+"\r\n")) {
		return fallback
	}

	rest := trimmed[len(delim):]
	end := findClosing(rest)
	if end < 0 {
		return fallback
	}

	block := rest[:end]
	after := rest[end:]
	// Skip the closing delimiter line itself.
	if i := bytes.IndexByte(after[1:], '\n'); i >= 0 {
		after = after[1+i+1:]
	} else {
		after = nil
	}
	body := strings.TrimLeft(string(after), "\n\r")

	var raw map[string]any
	if err := yaml.Unmarshal(block, &raw); err != nil {
		return fallback
	}

	return Result{Meta: buildMetadata(raw), Body: body}
}

// findClosing returns the offset in rest of the newline preceding a line
// that consists solely of the closing delimiter, or -1.
func findClosing(rest []byte) int {
	off := 0
	for {
		i := bytes.Index(rest[off:], []byte("\n"+delim))
		if i < 0 {
			return -1
		}
		lineStart := off + i
		lineEnd := lineStart + 1 + len(delim)
		tail := rest[lineEnd:]
		// The delimiter must be the whole line (optionally \r before \n).
		if len(tail) == 0 || tail[0] == '\n' || (tail[0] == '\r' && len(tail) > 1 && tail[1] == '\n') {
			return lineStart
		}
		off = lineEnd
	}
}

// buildMetadata maps the decoded YAML block onto typed fields, keeping
// unrecognised keys in Extra.
func buildMetadata(raw map[string]any) Metadata {
	meta := Metadata{Title: DefaultTitle}
	for key, val := range raw {
		switch key {
		case "title":
			if s := asString(val); s != "" {
				meta.Title = s
			}
		case "description":
			meta.Description = asString(val)
		case "order":
			meta.Order = asInt(val)
		case "icon":
			meta.Icon = asString(val)
		case "tags":
			meta.Tags = asStringSlice(val)
		default:
			if meta.Extra == nil {
				meta.Extra = make(map[string]any)
			}
			meta.Extra[key] = val
		}
	}
	return meta
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.Trim(strings.TrimSpace(s), `"'`)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// asInt coerces scalars to int, defaulting to 0 on anything unparseable.
func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}

func asStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		// A bare scalar under a list key is kept as a single-element list.
		if s := asString(v); s != "" {
			return []string{s}
		}
		return nil
	}
	var out []string
	for _, item := range items {
		if s := asString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
