package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"percently/internal/history"
)

// historyCmd manages the calculation history
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show and manage the calculation history",
	Long: `Show and manage the calculation history, most recent first.

Subcommands:
  list   - List recorded calculations
  clear  - Remove every recorded calculation
  load   - Recompute a recorded calculation without recording it again`,
	RunE: runHistoryList,
}

// historyListCmd lists recorded calculations
var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded calculations",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

// historyClearCmd clears the history
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every recorded calculation",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

// historyLoadCmd recomputes one entry
var historyLoadCmd = &cobra.Command{
	Use:   "load <index>",
	Short: "Recompute a recorded calculation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryLoad,
}

// describeEntry renders an entry as "mode x=15 y=200 = 30".
func describeEntry(e history.Entry) string {
	var b strings.Builder
	b.WriteString(e.Mode.String())
	for _, key := range e.Mode.RoleKeys() {
		if v, ok := e.Params[key]; ok {
			fmt.Fprintf(&b, " %s=%s", key, v)
		}
	}
	fmt.Fprintf(&b, " = %s", e.Display)
	return b.String()
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, closeDB, err := openController(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	w := cmd.OutOrStdout()
	entries := c.History(ctx)
	if len(entries) == 0 {
		fmt.Fprintln(w, "No calculations recorded yet.")
		return nil
	}
	for i, e := range entries {
		fmt.Fprintf(w, "%3d  %s\n", i, describeEntry(e))
	}
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, closeDB, err := openController(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := c.ClearHistory(ctx); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
	return nil
}

func runHistoryLoad(cmd *cobra.Command, args []string) error {
	i, err := strconv.Atoi(args[0])
	if err != nil || i < 0 {
		return fmt.Errorf("invalid history index %q", args[0])
	}

	ctx := cmd.Context()
	c, closeDB, err := openController(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	out, ok := c.LoadEntry(ctx, i)
	if !ok {
		return fmt.Errorf("no history entry %d", i)
	}
	return printResult(cmd.OutOrStdout(), out.Result)
}
