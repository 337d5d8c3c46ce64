package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/opsmind/internal/core/domain"
)

var documentFormat string

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage indexed documents",
	Long:  `Commands for listing and removing indexed documents.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	Long: `Lists every document visible to the current role with its chunk count,
page count, allowed roles and last upload time.`,
	Args: cobra.NoArgs,
	RunE: runDocumentList,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [document-name]",
	Short: "Delete a document and all its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

func init() {
	documentListCmd.Flags().StringVarP(&documentFormat, "format", "f", formatTable, "output format: table, json or yaml")
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}
	if err := validateFormat(documentFormat); err != nil {
		return err
	}

	docs, err := documentService.List(commandContext(cmd), capabilities())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if documentFormat != formatTable {
		if docs == nil {
			docs = []domain.DocumentSummary{}
		}
		return writeStructured(cmd, documentFormat, docs)
	}

	if len(docs) == 0 {
		cmd.Println("No documents indexed.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCHUNKS\tPAGES\tROLES\tUPLOADED")
	for i := range docs {
		d := docs[i]
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n",
			d.Name, d.Chunks, d.Pages, joinRoles(d.AllowedRoles), formatTime(d.UploadedAt))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	cmd.Printf("\n%d document(s)\n", len(docs))
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	name := args[0]
	deleted, err := documentService.Delete(commandContext(cmd), capabilities(), name)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if deleted == 0 {
		cmd.Printf("No chunks found for %q\n", name)
		return nil
	}
	cmd.Printf("Deleted %q (%d chunks)\n", name, deleted)
	return nil
}

func joinRoles(roles []domain.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.String()
	}
	return strings.Join(names, ",")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
