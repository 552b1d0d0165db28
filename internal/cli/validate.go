package cli

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"design-companion-be/pkg/consult/library"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
)

var errRejected = errors.New("one or more files were rejected")

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check files against the library upload rules",
	Long: `Check files against the same rules the API applies before uploading:
the size ceiling and the supported MIME types. Exits non-zero when any file
is rejected.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	maxBytes := loadConfig().Library.MaxFileSizeBytes
	w := cmd.OutOrStdout()

	rejected := 0
	for _, path := range args {
		info, err := describeFile(path)
		if err != nil {
			color.New(color.FgRed).Fprintf(w, "✗ %s: %v\n", path, err)
			rejected++
			continue
		}
		if !printValidation(w, info, library.ValidateRagFile(info, maxBytes)) {
			rejected++
		}
	}

	if rejected > 0 {
		return errRejected
	}
	return nil
}

func printValidation(w io.Writer, info library.FileInfo, v library.Validation) bool {
	if !v.Valid {
		color.New(color.FgRed).Fprintf(w, "✗ %s: %s\n", info.Name, v.Error)
		return false
	}
	color.New(color.FgGreen).Fprintf(w, "✓ %s (%s, %s)\n", info.Name, info.MimeType, humanize.IBytes(uint64(info.Size)))
	for _, warn := range v.Warnings {
		color.New(color.FgYellow).Fprintf(w, "  ! %s\n", warn)
	}
	return true
}

func describeFile(path string) (library.FileInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return library.FileInfo{}, err
	}
	if st.IsDir() {
		return library.FileInfo{}, fmt.Errorf("is a directory")
	}
	mimeType, err := detectMimeType(path)
	if err != nil {
		return library.FileInfo{}, err
	}
	return library.FileInfo{Name: filepath.Base(path), MimeType: mimeType, Size: st.Size()}, nil
}

// detectMimeType sniffs the content. A generic result gives way to the
// type the extension names.
func detectMimeType(path string) (string, error) {
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	detected := mediaType(m.String())
	if detected != "text/plain" && detected != "application/octet-stream" {
		return detected, nil
	}
	if byExt := mediaType(mime.TypeByExtension(filepath.Ext(path))); byExt != "" {
		return byExt, nil
	}
	return detected, nil
}

func mediaType(t string) string {
	mt, _, err := mime.ParseMediaType(t)
	if err != nil {
		return ""
	}
	return mt
}
