package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// openCmd opens a shared link
var openCmd = &cobra.Command{
	Use:   "open <url>",
	Short: "Open a shared link",
	Long: `Open a shared link: its mode becomes active and its values are filled
in. Links carrying auto=1 are computed right away, without being recorded
in history.`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

func runOpen(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, closeDB, err := openController(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	view := c.Start(ctx, args[0])
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "mode: %s\n", view.Mode)
	fields := view.Form[view.Mode]
	for _, role := range view.Mode.Roles() {
		fmt.Fprintf(w, "  %s: %s\n", role.Label, fields[role.Key])
	}
	if view.Result == nil {
		return nil
	}
	return printResult(w, *view.Result)
}
