package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sanbuphy/autocut-dev/internal/document"
	"github.com/sanbuphy/autocut-dev/internal/subtitle"
)

var docsCmd = &cobra.Command{
	Use:   "docs <input-file>",
	Short: "Regenerate markdown documents from an existing subtitle file",
	Long: `Rebuild X.md and X_full_text.md from a previously written X.srt, for when
the subtitle file was edited by hand after transcription.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocs,
}

var docsEncoding string

func init() {
	docsCmd.Flags().StringVar(&docsEncoding, "encoding", "utf-8", "subtitle and document text encoding")
	rootCmd.AddCommand(docsCmd)
}

func runDocs(cmd *cobra.Command, args []string) error {
	input, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	name := strings.TrimSuffix(input, filepath.Ext(input))
	srtPath := name + ".srt"
	if _, err := os.Stat(srtPath); os.IsNotExist(err) {
		return fmt.Errorf("no subtitle file for %s (expected %s)", args[0], srtPath)
	}

	entries, err := subtitle.ReadFile(srtPath, docsEncoding)
	if err != nil {
		return err
	}

	if err := document.WriteSentenceDoc(name+".md", filepath.Base(srtPath),
		filepath.Base(input), entries, docsEncoding); err != nil {
		return err
	}
	if err := document.WriteFullTextDoc(name+"_full_text.md",
		filepath.Base(input), entries, docsEncoding); err != nil {
		return err
	}

	slog.Info("documents regenerated", "sentences", name+".md", "full_text", name+"_full_text.md")
	return nil
}
