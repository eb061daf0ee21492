package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/amine-the-boss/juris/internal/api"
)

func newAskCmd() *cobra.Command {
	var conversationID int64
	var plain bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a one-shot question and print the answer",
		Long: "Sends a single question and prints the answer to stdout. Without\n" +
			"--conversation the service starts a fresh conversation for it.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(strings.Join(args, " "), conversationID, plain)
		},
	}
	cmd.Flags().Int64Var(&conversationID, "conversation", 0, "continue an existing conversation by id")
	cmd.Flags().BoolVar(&plain, "plain", false, "print the raw answer without markdown rendering")
	return cmd
}

func runAsk(prompt string, conversationID int64, plain bool) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Errorf("question is empty")
	}

	a, err := buildApp()
	if err != nil {
		return err
	}
	if !a.state.Authenticated() {
		return fmt.Errorf("not logged in; run `juris login` first")
	}

	req := api.AskRequest{Language: a.cfg.Language, Prompt: prompt}
	if conversationID != 0 {
		req.ConversationID = &conversationID
	}

	resp, err := a.client.Ask(context.Background(), req)
	if err != nil {
		return fmt.Errorf("ask failed: %s", api.UserMessage(err))
	}

	if hist := a.openHistory(); hist != nil {
		if err := hist.Add(prompt, a.cfg.Language); err != nil {
			a.logger.Warn("history write failed", "error", err)
		}
		hist.Close()
	}

	fmt.Println(renderAnswer(resp.Answer, plain))
	fmt.Fprintf(os.Stderr, "conversation %d · %.2fs\n", resp.ConversationID, resp.ResponseTime)
	return nil
}

// renderAnswer renders markdown when stdout is a terminal, raw text
// otherwise so pipes get clean output.
func renderAnswer(answer string, plain bool) string {
	if plain || !term.IsTerminal(int(os.Stdout.Fd())) {
		return answer
	}
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return answer
	}
	rendered, err := r.Render(answer)
	if err != nil {
		return answer
	}
	return strings.TrimRight(rendered, "\n")
}
