// Package frontmatter splits and assembles YAML frontmatter blocks in
// markdown notes.
//
// A frontmatter block is delimited by a line consisting solely of "---" at
// the very start of the file and a subsequent line consisting solely of
// "---". Missing delimiters, an unclosed block, or undecodable YAML is not
// an error: the whole text is treated as body.
package frontmatter

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse splits raw note text into decoded frontmatter metadata and body.
// ok reports whether a frontmatter block was found and decoded; when it is
// false, body is the full input text and meta is nil. Body text is
// everything after the closing delimiter with leading blank lines trimmed.
func Parse(data []byte) (meta any, body string, ok bool) {
	first, rest, found := bytes.Cut(data, []byte("\n"))
	if !found || !isDelimiter(first) {
		return nil, string(data), false
	}

	// Scan for the closing delimiter line.
	end, next := -1, 0
	for i := 0; i <= len(rest); {
		j := bytes.IndexByte(rest[i:], '\n')
		last := j < 0
		if last {
			j = len(rest) - i
		}
		if isDelimiter(rest[i : i+j]) {
			end = i
			next = i + j + 1
			break
		}
		if last {
			break
		}
		i += j + 1
	}
	if end < 0 {
		// Unclosed block, everything is body.
		return nil, string(data), false
	}

	header := rest[:end]
	header = bytes.TrimSuffix(header, []byte("\n"))
	var after []byte
	if next <= len(rest) {
		after = rest[next:]
	}

	if err := yaml.Unmarshal(header, &meta); err != nil {
		// Invalid YAML falls back to the raw text, no error.
		return nil, string(data), false
	}
	return meta, strings.TrimLeft(string(after), "\n\r"), true
}

// isDelimiter reports whether line consists solely of "---",
// tolerating a trailing carriage return.
func isDelimiter(line []byte) bool {
	return string(bytes.TrimSuffix(line, []byte("\r"))) == "---"
}

// Format serializes metadata plus body into canonical frontmatter text:
// "---\n<yaml>\n---\n\n<body>". The body is emitted verbatim.
//
// Some MCP clients send metadata double-encoded as a JSON string
// ("{\"title\": ...}" instead of an object). A string value that decodes
// as JSON is unwrapped first; any other string is kept as-is.
func Format(meta any, body string) string {
	if s, isStr := meta.(string); isStr {
		if decoded, ok := decodeJSONString(s); ok {
			meta = decoded
		}
	}

	out, err := yaml.Marshal(meta)
	if err != nil {
		out = nil
	}
	// yaml.Marshal appends exactly one trailing newline.
	header := strings.TrimSuffix(string(out), "\n")

	return "---\n" + header + "\n---\n\n" + body
}

// decodeJSONString decodes s as a single JSON document. Numbers are
// normalized to int64 or float64 so that the YAML encoder keeps the
// integer-vs-float distinction intact.
func decodeJSONString(s string) (any, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if dec.More() {
		return nil, false
	}
	return normalizeNumbers(v), true
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(string(t), 10, 64); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case []any:
		for i := range t {
			t[i] = normalizeNumbers(t[i])
		}
	case map[string]any:
		for k := range t {
			t[k] = normalizeNumbers(t[k])
		}
	}
	return v
}
