package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"percently/internal/percent"
)

// calcCmd evaluates one calculation
var calcCmd = &cobra.Command{
	Use:   "calc <mode> <first> <second>",
	Short: "Evaluate a calculation",
	Long: `Evaluate a calculation. Operands are given in the order of the mode's
inputs (see "percently modes"). Numbers may use either "1,234.5" or
"1.234,5" grouping; use "--" before negative operands.`,
	Example: `  percently calc percent-of 15 200
  percently calc percent-change -- -40 10`,
	Args: cobra.ExactArgs(3),
	RunE: runCalc,
}

// modesCmd lists the calculation modes
var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "List calculation modes and their inputs",
	Args:  cobra.NoArgs,
	RunE:  runModes,
}

// linkCmd prints a shareable link
var linkCmd = &cobra.Command{
	Use:   "link <mode> <first> <second>",
	Short: "Print a link that recomputes a calculation when opened",
	Args:  cobra.ExactArgs(3),
	RunE:  runLink,
}

// modeInputs maps positional operands onto the roles of the named mode.
func modeInputs(args []string) (percent.Mode, map[string]string, error) {
	mode, err := percent.ParseMode(args[0])
	if err != nil {
		return 0, nil, fmt.Errorf("%w (see \"percently modes\")", err)
	}
	keys := mode.RoleKeys()
	inputs := make(map[string]string, len(keys))
	for i, key := range keys {
		inputs[key] = args[i+1]
	}
	return mode, inputs, nil
}

func runCalc(cmd *cobra.Command, args []string) error {
	mode, inputs, err := modeInputs(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	c, closeDB, err := openController(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	out := c.Calculate(ctx, mode, inputs)
	if err := printResult(cmd.OutOrStdout(), out.Result); err != nil {
		return err
	}
	if out.Committed != nil {
		logger.Debug("previous calculation recorded", zap.String("display", out.Committed.Display))
	}
	return nil
}

func runModes(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	for _, m := range percent.Modes {
		labels := make([]string, 0, 2)
		for _, r := range m.Roles() {
			labels = append(labels, fmt.Sprintf("%s=%s", r.Key, r.Label))
		}
		fmt.Fprintf(w, "%-15s %-34s %s\n", m.String(), m.Title(), strings.Join(labels, ", "))
	}
	return nil
}

func runLink(cmd *cobra.Command, args []string) error {
	mode, inputs, err := modeInputs(args)
	if err != nil {
		return err
	}

	c, closeDB, err := openController(cmd.Context())
	if err != nil {
		return err
	}
	defer closeDB()

	u, err := c.Permalink(mode, inputs)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), u)
	return nil
}

// errCalculation is returned after a failed result has been printed, so the
// process exits non-zero.
var errCalculation = errors.New("calculation failed")

// printResult writes the display value and explanation, or the failure
// message and per-field errors.
func printResult(w io.Writer, res percent.Result) error {
	if !res.OK {
		fmt.Fprintf(w, "error: %s\n", res.ErrorMessage)
		for _, key := range res.Mode.RoleKeys() {
			if msg, ok := res.FieldErrors[key]; ok {
				fmt.Fprintf(w, "  %s: %s\n", key, msg)
			}
		}
		return errCalculation
	}

	fmt.Fprintln(w, res.Display)
	if res.Explanation != "" {
		fmt.Fprintln(w, res.Explanation)
	}
	if math.Abs(res.Value) >= 1e9 {
		fmt.Fprintf(w, "short: %s\n", res.Short)
	}
	return nil
}
