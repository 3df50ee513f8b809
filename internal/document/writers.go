package document

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/sanbuphy/autocut-dev/internal/subtitle"
)

// fullTextChunkChars is the approximate character budget per emitted block
// of the full-text document.
const fullTextChunkChars = 1000

// WriteSentenceDoc writes the sentence-curation document: one unchecked task
// per subtitle, prefixed with its index and minute:second start, so sentences
// can be ticked for keeping.
func WriteSentenceDoc(path, srtName, videoName string, entries []subtitle.Entry, encodingName string) error {
	md := NewMD(path, encodingName)
	md.Clear()
	md.AddDoneEditing(false)
	md.AddVideo(videoName)
	md.Add(fmt.Sprintf(
		"\nTexts generated from [%s](%s). Mark the sentences to keep for autocut.\n"+
			"The format is [subtitle_index,duration_in_second] subtitle context.\n",
		srtName, srtName))

	for i, e := range entries {
		sec := int(e.Start)
		pre := fmt.Sprintf("[%d,%02d:%02d]", i+1, sec/60, sec%60)
		md.AddTask(false, fmt.Sprintf("%-11s %s", pre, strings.TrimSpace(e.Text)))
	}
	return md.Write()
}

// WriteFullTextDoc writes the running transcript document: subtitle texts
// concatenated with gap markers skipped, flushed as comma-joined blocks of
// roughly fullTextChunkChars characters. Any previous file is replaced.
func WriteFullTextDoc(path, videoName string, entries []subtitle.Entry, encodingName string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("replace full text doc: %w", err)
	}

	md := NewMD(path, encodingName)
	md.AddVideo(videoName)

	chars := 0
	for _, e := range entries {
		if e.IsGapMarker() {
			continue
		}
		text := strings.TrimSpace(e.Text)
		if text == "" {
			continue
		}
		md.Add(text)
		chars += utf8.RuneCountInString(text)
		if chars > fullTextChunkChars {
			if err := md.AppendJoined(","); err != nil {
				return err
			}
			chars = 0
		}
	}
	return md.AppendJoined(",")
}
