package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"design-companion-be/internal/entity"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var assumeYes bool

var storesCmd = &cobra.Command{
	Use:   "stores",
	Short: "Manage remote document stores",
}

var storesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every document store",
	Args:  cobra.NoArgs,
	RunE:  runStoresList,
}

var storesDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a document store and all its documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoresDelete,
}

func init() {
	storesDeleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	storesCmd.AddCommand(storesListCmd, storesDeleteCmd)
	rootCmd.AddCommand(storesCmd)
}

func runStoresList(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	stores, err := e.client.ListStores(ctx)
	if err != nil {
		return fmt.Errorf("failed to list stores: %w", err)
	}
	printStores(cmd.OutOrStdout(), stores, e.cfg.Library.StoreDisplayName)
	return nil
}

func printStores(w io.Writer, stores []entity.FileSearchStore, libraryName string) {
	if len(stores) == 0 {
		color.New(color.FgYellow).Fprintln(w, "No document stores found.")
		return
	}

	bold := color.New(color.Bold)
	for _, st := range stores {
		name := st.DisplayName
		if name == libraryName {
			name += " (library)"
		}
		bold.Fprintln(w, name)
		fmt.Fprintf(w, "  Name:      %s\n", st.Name)
		fmt.Fprintf(w, "  Documents: %s active, %s pending, %s failed\n",
			countOrZero(st.ActiveDocumentsCount), countOrZero(st.PendingDocumentsCount), countOrZero(st.FailedDocumentsCount))
		if n, err := strconv.ParseUint(st.SizeBytes, 10, 64); err == nil {
			fmt.Fprintf(w, "  Size:      %s\n", humanize.IBytes(n))
		}
		if ts, err := time.Parse(time.RFC3339Nano, st.CreateTime); err == nil {
			fmt.Fprintf(w, "  Created:   %s\n", humanize.Time(ts))
		}
	}
	fmt.Fprintf(w, "\n%d store(s)\n", len(stores))
}

func countOrZero(v string) string {
	if v == "" {
		return "0"
	}
	return v
}

func runStoresDelete(cmd *cobra.Command, args []string) error {
	name := args[0]
	if !strings.HasPrefix(name, "fileSearchStores/") {
		name = "fileSearchStores/" + name
	}

	if !assumeYes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete %s and every document in it?", name)) {
		color.New(color.FgYellow).Fprintln(cmd.OutOrStdout(), "Aborted.")
		return nil
	}

	e, err := newEnv()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	if err := e.client.DeleteStore(ctx, name); err != nil {
		return fmt.Errorf("failed to delete store: %w", err)
	}
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Deleted %s\n", name)
	return nil
}

func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
