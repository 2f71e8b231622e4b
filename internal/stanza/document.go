// Package stanza edits the per-interface blocks of a dhcpcd-style
// configuration file. All functions in this package are pure: they take
// a Document and return a new one, and never touch the filesystem.
package stanza

import "strings"

// Document is the full contents of a line-oriented configuration file,
// one element per line, without line terminators.
type Document []string

// ParseDocument splits file contents into lines. A single trailing newline
// terminates the last line and does not produce an extra empty line.
func ParseDocument(content string) Document {
	if content == "" {
		return Document{}
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSuffix(content, "\n")
	return Document(strings.Split(content, "\n"))
}

// String joins the document back into file contents, newline-terminated.
func (d Document) String() string {
	if len(d) == 0 {
		return ""
	}
	return strings.Join(d, "\n") + "\n"
}

// Bytes is String as a byte slice, convenient for writing to disk.
func (d Document) Bytes() []byte {
	return []byte(d.String())
}

// Equal reports whether two documents have identical lines.
func (d Document) Equal(other Document) bool {
	if len(d) != len(other) {
		return false
	}
	for i := range d {
		if d[i] != other[i] {
			return false
		}
	}
	return true
}

// clone returns a copy that shares no backing array with d.
func (d Document) clone() Document {
	out := make(Document, len(d))
	copy(out, d)
	return out
}
