// Package metadata reads and writes the key:value header block at the top of
// a specification document. The block is delimited by "---" lines and, when
// present, must start on the first line. Everything after the block is
// preserved byte for byte.
package metadata

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// TestDirectoryKey names the configured test-search root of a spec.
const TestDirectoryKey = "testDirectory"

const delimiter = "---"

// field is one header line. raw is kept so that untouched lines are
// written back unchanged.
type field struct {
	key   string
	value string
	raw   string
}

// Header is the parsed header block of a document.
type Header struct {
	fields  []field
	newline string
}

// Get returns the value stored under key.
func (h *Header) Get(key string) (string, bool) {
	for _, f := range h.fields {
		if f.key == key {
			return f.value, true
		}
	}
	return "", false
}

// Set stores value under key. An empty value removes the key.
func (h *Header) Set(key, value string) {
	for i, f := range h.fields {
		if f.key != key {
			continue
		}
		if value == "" {
			h.fields = append(h.fields[:i], h.fields[i+1:]...)
			return
		}
		h.fields[i] = field{key: key, value: value, raw: key + ": " + encodeScalar(value)}
		return
	}
	if value != "" {
		h.fields = append(h.fields, field{key: key, value: value, raw: key + ": " + encodeScalar(value)})
	}
}

// Empty reports whether the header holds no key.
func (h *Header) Empty() bool {
	for _, f := range h.fields {
		if f.key != "" {
			return false
		}
	}
	return true
}

// split separates content into its header and body. ok is false when the
// content does not open with a complete header block; body is then the
// whole content.
func split(content string) (h Header, body string, ok bool) {
	nl := "\n"
	switch {
	case strings.HasPrefix(content, delimiter+"\r\n"):
		nl = "\r\n"
	case strings.HasPrefix(content, delimiter+"\n"):
	default:
		return Header{newline: "\n"}, content, false
	}

	rest := content[len(delimiter)+len(nl):]
	var fields []field
	for {
		idx := strings.Index(rest, "\n")
		var line string
		if idx < 0 {
			line = rest
		} else {
			line = rest[:idx]
		}
		trimmed := strings.TrimSuffix(line, "\r")
		if trimmed == delimiter {
			if idx < 0 {
				return Header{fields: fields, newline: nl}, "", true
			}
			return Header{fields: fields, newline: nl}, rest[idx+1:], true
		}
		if idx < 0 {
			return Header{newline: "\n"}, content, false
		}
		fields = append(fields, parseField(trimmed))
		rest = rest[idx+1:]
	}
}

// parseField parses "key: value". Lines without a key keep only raw.
func parseField(line string) field {
	key, value, found := strings.Cut(line, ":")
	key = strings.TrimSpace(key)
	if !found || key == "" || strings.ContainsAny(key, " \t#") {
		return field{raw: line}
	}
	return field{key: key, value: decodeScalar(value), raw: line}
}

// render writes the header followed by body. An empty header is dropped.
func (h *Header) render(body string) string {
	if h.Empty() {
		return body
	}
	nl := h.newline
	if nl == "" {
		nl = "\n"
	}
	var b strings.Builder
	b.WriteString(delimiter + nl)
	for _, f := range h.fields {
		b.WriteString(f.raw + nl)
	}
	b.WriteString(delimiter + nl)
	b.WriteString(body)
	return b.String()
}

// decodeScalar reads a YAML scalar, falling back to the trimmed text.
func decodeScalar(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	var s string
	if err := yaml.Unmarshal([]byte(raw), &s); err != nil {
		return raw
	}
	return s
}

// encodeScalar quotes value only when YAML requires it.
func encodeScalar(value string) string {
	out, err := yaml.Marshal(value)
	if err != nil {
		return value
	}
	return strings.TrimSuffix(string(out), "\n")
}
