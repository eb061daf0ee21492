package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newConversationsCmd() *cobra.Command {
	var deleteID int64
	var yes bool

	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"convs"},
		Short:   "List conversations, or delete one with --delete",
		RunE: func(cmd *cobra.Command, args []string) error {
			if deleteID != 0 {
				return runDeleteConversation(deleteID, yes)
			}
			return runListConversations()
		},
	}
	cmd.Flags().Int64Var(&deleteID, "delete", 0, "delete the conversation with this id")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the delete confirmation")
	return cmd
}

func runListConversations() error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	if !a.state.Authenticated() {
		return fmt.Errorf("not logged in; run `juris login` first")
	}

	convs, err := a.client.Conversations(context.Background())
	if err != nil {
		return fmt.Errorf("listing conversations failed: %w", err)
	}
	if len(convs) == 0 {
		fmt.Println("No conversations yet.")
		return nil
	}

	for _, conv := range convs {
		updated := "-"
		if !conv.UpdatedAt.IsZero() {
			updated = conv.UpdatedAt.Format("2006-01-02 15:04")
		}
		preview := ""
		if len(conv.Messages) > 0 {
			preview = strings.ReplaceAll(conv.Messages[0].Content, "\n", " ")
			if len(preview) > 60 {
				preview = preview[:60] + "…"
			}
		}
		fmt.Printf("%6d  %s  %3d messages  %s\n", conv.ID, updated, len(conv.Messages), preview)
	}
	return nil
}

func runDeleteConversation(id int64, yes bool) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	if !a.state.Authenticated() {
		return fmt.Errorf("not logged in; run `juris login` first")
	}

	if !yes {
		fmt.Printf("Delete conversation %d? [y/N] ", id)
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading confirmation: %w", err)
		}
		if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := a.client.DeleteConversation(context.Background(), id); err != nil {
		return fmt.Errorf("deleting conversation %d failed: %w", id, err)
	}
	fmt.Printf("Deleted conversation %d.\n", id)
	return nil
}
