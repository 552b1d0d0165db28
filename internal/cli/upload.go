package cli

import (
	"context"
	"fmt"
	"os"

	"design-companion-be/pkg/consult/library"
	"design-companion-be/pkg/gemini"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	uploadContext string
	uploadStore   string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Index a document into the library store",
	Long: `Validate a document, find or create the library store, upload the file
and wait until indexing finishes.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadContext, "context", "", "Source context stored with the document")
	uploadCmd.Flags().StringVar(&uploadStore, "store", "", "Store display name (defaults to the library store)")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()

	info, err := describeFile(args[0])
	if err != nil {
		return err
	}
	e, err := newEnv()
	if err != nil {
		return err
	}
	if !printValidation(w, info, library.ValidateRagFile(info, e.cfg.Library.MaxFileSizeBytes)) {
		return errRejected
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	displayName := uploadStore
	if displayName == "" {
		displayName = e.cfg.Library.StoreDisplayName
	}
	st, err := e.client.GetOrCreateStore(ctx, displayName)
	if err != nil {
		return fmt.Errorf("failed to resolve store: %w", err)
	}
	fmt.Fprintf(w, "Store: %s\n", st.Name)

	lastStatus := ""
	res, err := e.client.UploadAndIndex(ctx, st.Name, gemini.UploadFile{
		Name:     info.Name,
		MimeType: info.MimeType,
		Data:     data,
	}, uploadContext, func(status string, progress float64) {
		if status == lastStatus {
			return
		}
		lastStatus = status
		fmt.Fprintf(w, "  [%3.0f%%] %s\n", progress, status)
	})
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	color.New(color.FgGreen).Fprintf(w, "Indexed %s as %s\n", info.Name, res.DocumentName)
	return nil
}
