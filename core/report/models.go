package report

import (
	"bytes"
	"io"
	"strings"
	"unicode"
)

// Kind names the report in exported filenames.
type Kind string

const (
	KindRoster     Kind = "Students"
	KindGrades     Kind = "Grades"
	KindAttendance Kind = "Attendance"
)

// Document is a format-neutral report: a title, free paragraphs then an optional table.
type Document struct {
	Title      string
	Paragraphs []string
	Table      *Table
}

// Table cells may hold "\n" for line breaks.
type Table struct {
	Header []string
	Rows   [][]string
}

// Renderer writes a Document in a file format.
type Renderer interface {
	Render(w io.Writer, doc Document) error
	Extension() string
	ContentType() string
}

// Artifact is a rendered report kept in memory.
type Artifact struct {
	Filename    string
	ContentType string
	Content     *bytes.Buffer
}

// filename builds <Kind>_<CourseName>[_<suffix>].<ext>.
func filename(kind Kind, courseName, suffix, ext string) string {
	parts := []string{string(kind), sanitizeFilename(courseName)}
	if suffix != "" {
		parts = append(parts, suffix)
	}
	return strings.Join(parts, "_") + "." + ext
}

// sanitizeFilename keeps letters, digits, '-' and '_'; spaces become '_'.
func sanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "course"
	}
	return b.String()
}
