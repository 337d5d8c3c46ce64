package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/opsmind/internal/core/ports/driving"
)

// sniffLen is the number of bytes http.DetectContentType considers.
const sniffLen = 512

var (
	ingestTargetRole string
	ingestName       string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Index a PDF document",
	Long: `Extracts, chunks and embeds a PDF, then indexes it under its file name.
Ingesting a file with a name that is already indexed replaces the previous version.

Use --target-role admin to make the document visible to admins only.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestTargetRole, "target-role", "", "restrict visibility (admin) or leave empty for everyone")
	ingestCmd.Flags().StringVar(&ingestName, "name", "", "document name (default: file base name)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	name := ingestName
	if name == "" {
		name = filepath.Base(path)
	}

	contentType, err := sniffContentType(f, info.Size())
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	cmd.Printf("Indexing %s...\n", name)
	report, err := ingestService.Ingest(commandContext(cmd), capabilities(), driving.IngestRequest{
		DocumentName: name,
		ContentType:  contentType,
		Body:         f,
		Size:         info.Size(),
		TargetRole:   ingestTargetRole,
	})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Indexed %s: %d chunks from %d pages (%s, %d dimensions)\n",
		report.DocumentName, report.Chunks, report.Pages, report.Model, report.Dimensions)
	if report.Replaced > 0 {
		cmd.Printf("Replaced %d chunks of the previous version\n", report.Replaced)
	}
	return nil
}

// sniffContentType detects the MIME type from the leading bytes of r.
func sniffContentType(r io.ReaderAt, size int64) (string, error) {
	buf := make([]byte, min(size, sniffLen))
	n, err := r.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}
