package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/opsmind/internal/core/domain"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about indexed documents",
	Long: `Retrieves the most relevant chunks visible to the current role and streams
an answer grounded in them. When the answer cites the documents, the source
document, page and confidence are printed after it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the complete answer and citation as JSON")
	rootCmd.AddCommand(askCmd)
}

// askResult is the --json output of ask.
type askResult struct {
	Answer   string                   `json:"answer"`
	Sourced  bool                     `json:"sourced"`
	Citation *domain.CitationMetadata `json:"citation"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return errors.New("ask service not configured")
	}

	ctx := commandContext(cmd)
	events, err := askService.Ask(ctx, domain.AskRequest{
		Question:     strings.Join(args, " "),
		Capabilities: capabilities(),
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAskJSON(ctx, cmd, events)
	}
	return outputAskStream(ctx, cmd, events)
}

func outputAskStream(ctx context.Context, cmd *cobra.Command, events <-chan domain.AnswerEvent) error {
	for ev := range events {
		switch ev.Type {
		case domain.EventText:
			cmd.Print(ev.Text)
		case domain.EventDone:
			cmd.Println()
			printCitation(cmd, ev.Citation)
			return nil
		case domain.EventFailed:
			cmd.Println()
			return fmt.Errorf("answer interrupted: %w", ev.Err)
		}
	}
	return streamClosed(ctx)
}

func outputAskJSON(ctx context.Context, cmd *cobra.Command, events <-chan domain.AnswerEvent) error {
	var answer strings.Builder
	for ev := range events {
		switch ev.Type {
		case domain.EventText:
			answer.WriteString(ev.Text)
		case domain.EventDone:
			data, err := json.MarshalIndent(askResult{
				Answer:   answer.String(),
				Sourced:  ev.Citation != nil,
				Citation: ev.Citation,
			}, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal answer: %w", err)
			}
			cmd.Println(string(data))
			return nil
		case domain.EventFailed:
			return fmt.Errorf("answer interrupted: %w", ev.Err)
		}
	}
	return streamClosed(ctx)
}

// streamClosed explains a stream that ended without a terminal event.
func streamClosed(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return domain.ErrStreamInterrupted
}

func printCitation(cmd *cobra.Command, c *domain.CitationMetadata) {
	if c == nil {
		cmd.Println(render(cmd, mutedStyle, "(no source cited)"))
		return
	}

	cmd.Println()
	source := fmt.Sprintf("Source: %s, page %s", c.SourceName, c.Page)
	if c.Section != "" {
		source += fmt.Sprintf(", %s", c.Section)
	}
	cmd.Println(render(cmd, sourceStyle, source))
	cmd.Printf("Confidence: %.2f%%\n", c.Confidence)
	if c.Snippet != "" {
		cmd.Println(render(cmd, mutedStyle, fmt.Sprintf("%q", c.Snippet)))
	}
	if len(c.Citations) > 1 {
		cmd.Println("Also consulted:")
		for _, ref := range c.Citations[1:] {
			cmd.Printf("  - %s\n", ref.String())
		}
	}
}
