package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

func newPacketCmd() *cobra.Command {
	var (
		render bool
		out    string
	)

	cmd := &cobra.Command{
		Use:   "packet <property-id>",
		Short: "Generate the appeal packet",
		Long: "Generate the appeal packet once the appeal has reached the review stage. " +
			"Prints Markdown by default; --render styles it for the terminal and --out writes HTML.",
		Args: cobra.ExactArgs(1),
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

			pkt, err := a.packets.Generate(cmd.Context(), id)
			if err != nil {
				return err
			}

			if pkt.Synthetic {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: packet contains synthetic data; replace it before filing")
			}

			if out != "" {
				page, err := pkt.HTML()
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, page, 0o644); err != nil {
					return fmt.Errorf("writing packet: %w", err)
				}
				if isJSON() {
					return printJSON(cmd.OutOrStdout(), map[string]interface{}{
						"property_id": id,
						"path":        out,
						"synthetic":   pkt.Synthetic,
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Packet written to %s\n", out)
				return nil
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), pkt)
			}

			if !render {
				fmt.Fprint(cmd.OutOrStdout(), pkt.Markdown)
				return nil
			}

			r, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(terminalWidth()),
			)
			if err != nil {
				return fmt.Errorf("creating renderer: %w", err)
			}
			styled, err := r.Render(pkt.Markdown)
			if err != nil {
				return fmt.Errorf("rendering packet: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), styled)
			return nil
		},
	}

	cmd.Flags().BoolVar(&render, "render", false, "style the Markdown for the terminal")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the packet as HTML to this file")
	return cmd
}
