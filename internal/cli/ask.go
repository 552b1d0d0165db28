package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"design-companion-be/internal/entity"
	"design-companion-be/pkg/gemini"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	askImage string
	askStore string
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Run one consultation turn",
	Long: `Send a single question to the design consultant. With --image the
drawing is analysed and a rating with principle notes is printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askImage, "image", "", "Path to a drawing or photo to analyse")
	askCmd.Flags().StringVar(&askStore, "store", "", "Store resource name to ground answers in")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	question := strings.Join(args, " ")
	opts := gemini.SearchOptions{StoreName: askStore}
	w := cmd.OutOrStdout()

	if askImage != "" {
		uri, err := imageDataURI(askImage)
		if err != nil {
			return err
		}
		res, err := e.client.Analyze(ctx, question, uri, opts)
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}
		printAnalysis(w, res.Text, res.Analysis, res.Citations)
		return nil
	}

	res, err := e.client.Chat(ctx, question, nil, opts)
	if err != nil {
		return fmt.Errorf("consultation failed: %w", err)
	}
	fmt.Fprintln(w, res.Text)
	printCitations(w, res.Citations)
	return nil
}

func imageDataURI(path string) (string, error) {
	mimeType, err := detectMimeType(path)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("%s is not an image (%s)", path, mimeType)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func printAnalysis(w io.Writer, text string, a entity.DesignAnalysis, citations []entity.GroundingChunk) {
	color.New(color.Bold).Fprintf(w, "Rating: %.1f/10\n\n", a.Rating)
	fmt.Fprintln(w, text)
	fmt.Fprintln(w)

	heading := color.New(color.FgCyan, color.Bold)
	for _, p := range []struct{ name, note string }{
		{"Safety", a.Principles.Safety},
		{"Neuroarchitecture", a.Principles.Neuroarchitecture},
		{"Acoustics", a.Principles.Acoustics},
		{"Lighting", a.Principles.Lighting},
	} {
		if p.note == "" {
			continue
		}
		heading.Fprintln(w, p.name)
		fmt.Fprintf(w, "  %s\n", p.note)
	}

	if len(a.Recommendations) > 0 {
		heading.Fprintln(w, "Recommendations")
		for _, r := range a.Recommendations {
			fmt.Fprintf(w, "  - %s\n", r)
		}
	}
	printCitations(w, citations)
}

func printCitations(w io.Writer, citations []entity.GroundingChunk) {
	if len(citations) == 0 {
		return
	}
	color.New(color.Faint).Fprintln(w, "\nSources:")
	for i, c := range citations {
		color.New(color.Faint).Fprintf(w, "  [%d] %s\n", i+1, c.DisplayTitle(i))
	}
}
