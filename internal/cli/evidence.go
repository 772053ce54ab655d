package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newEvidenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evidence",
		Short: "Manage owner evidence notes",
		Long:  "Record facts about the property that support the appeal, such as needed repairs or defects.",
	}
	cmd.AddCommand(
		newEvidenceAddCmd(),
		newEvidenceListCmd(),
		newEvidenceRemoveCmd(),
	)
	return cmd
}

func newEvidenceAddCmd() *cobra.Command {
	var author string

	cmd := &cobra.Command{
		Use:   "add <property-id> <text>",
		Short: "Add an evidence note",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("property", args[0])
			if err != nil {
				return err
			}
			text := strings.Join(args[1:], " ")

			if author == "" {
				author = os.Getenv("USER")
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.properties.Get(id); err != nil {
				return err
			}

			n, err := a.evidence.Add(id, text, author)
			if err != nil {
				return fmt.Errorf("adding evidence: %w", err)
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), n)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Evidence #%d added to property #%d.\n", n.ID, id)
			return nil
		},
	}

	cmd.Flags().StringVar(&author, "author", "", "who recorded the note (default: $USER)")
	return cmd
}

func newEvidenceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <property-id>",
		Short: "List evidence notes for a property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("property", args[0])
			if err != nil {
				return err
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			notes, err := a.evidence.ListByPropertyID(id)
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), notes)
			}
			printEvidenceList(cmd.OutOrStdout(), notes)
			return nil
		},
	}
}

func newEvidenceRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <evidence-id>",
		Short: "Remove an evidence note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("evidence", args[0])
			if err != nil {
				return err
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.evidence.Delete(id); err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"id":      id,
					"removed": true,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Evidence #%d removed.\n", id)
			return nil
		},
	}
}
