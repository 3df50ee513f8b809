package document

import (
	"fmt"
	"os"
	"strings"

	"github.com/sanbuphy/autocut-dev/internal/subtitle"
)

// EditDoneMark is the checkbox line manual editors tick when a sentence
// document is ready for cutting.
const EditDoneMark = "-- Mark if you are done editing."

// MD accumulates markdown lines and writes them in a target encoding.
// Write replaces the file; AppendJoined supports the chunked full-text
// document which grows across flushes.
type MD struct {
	Path     string
	Encoding string

	lines []string
}

func NewMD(path, encodingName string) *MD {
	return &MD{Path: path, Encoding: encodingName}
}

// Clear drops all accumulated lines.
func (m *MD) Clear() {
	m.lines = nil
}

// Add appends one markdown line.
func (m *MD) Add(line string) {
	m.lines = append(m.lines, line)
}

// AddTask appends a checkbox task line.
func (m *MD) AddTask(done bool, text string) {
	mark := " "
	if done {
		mark = "x"
	}
	m.Add(fmt.Sprintf("- [%s] %s", mark, text))
}

// AddDoneEditing appends the editing-complete checkbox.
func (m *MD) AddDoneEditing(done bool) {
	m.AddTask(done, EditDoneMark)
}

// AddVideo appends an inline video player for the source media.
func (m *MD) AddVideo(filename string) {
	m.Add(fmt.Sprintf("\n<video controls src=\"%s\"></video>\n", filename))
}

// Write replaces the file with the accumulated lines.
func (m *MD) Write() error {
	data, err := subtitle.EncodeText(strings.Join(m.lines, "\n")+"\n", m.Encoding)
	if err != nil {
		return err
	}
	if err := os.WriteFile(m.Path, data, 0o644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

// AppendJoined appends the accumulated lines joined by sep plus a trailing
// newline, then clears the accumulator. Used for chunked documents.
func (m *MD) AppendJoined(sep string) error {
	if len(m.lines) == 0 {
		return nil
	}
	data, err := subtitle.EncodeText(strings.Join(m.lines, sep)+"\n", m.Encoding)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(m.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("append markdown: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("append markdown: %w", err)
	}
	m.Clear()
	return f.Close()
}
