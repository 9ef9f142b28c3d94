package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dialogprime/internal/dialog"
	"dialogprime/internal/manifest"
	"dialogprime/internal/recognizer"
	"dialogprime/internal/turn"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate [manifest] [script]",
	Short: "Replay a turn script through the priming context stack",
	Long: `Drives the context stack with the begin/expect/end/unwind events of a turn
script and prints the stack state after every step.

Script steps:
  - op: begin    dialog: <id>   locale: <optional override>
  - op: expect   dialog: <id>   properties: [p1, p2]
  - op: end      dialog: <id>
  - op: unwind

A mismatched end or an expected property with no schema binding aborts the
simulation with the corresponding error.`,
	Args: cobra.ExactArgs(2),
	RunE: runSimulate,
}

func runSimulate(cmd *cobra.Command, args []string) error {
	m, err := manifest.Load(args[0])
	if err != nil {
		return err
	}
	script, err := manifest.LoadScript(args[1])
	if err != nil {
		return err
	}

	idx := manifest.BuildIndex(m.Dialog)
	reg := dialog.NewRegistry(recognizer.NewRegistry())

	locale := m.Locale
	if locale == "" {
		locale = cfg.DefaultLocale
	}
	stack := turn.NewStack(locale, reg, turn.WithLogger(logger))

	for i, step := range script.Steps {
		if err := applyStep(stack, idx, step); err != nil {
			return fmt.Errorf("step %d (%s %s): %w", i+1, step.Op, step.Dialog, err)
		}
		printStep(i+1, step, stack)
	}

	top := stack.Top()
	logger.Info("simulation complete",
		zap.Int("depth", stack.Depth()),
		zap.String("locale", stack.Locale()))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"depth":    stack.Depth(),
		"locale":   stack.Locale(),
		"possible": top.Possible,
		"expected": top.Expected,
	})
}

func applyStep(stack *turn.Stack, idx manifest.Index, step manifest.Step) error {
	switch step.Op {
	case manifest.OpBegin:
		d, err := idx.Lookup(step.Dialog)
		if err != nil {
			return err
		}
		_, err = stack.Begin(d, step.Locale)
		return err

	case manifest.OpExpect:
		d, err := idx.Lookup(step.Dialog)
		if err != nil {
			return err
		}
		return stack.DeclareExpected(d, step.Properties)

	case manifest.OpEnd:
		d, err := idx.Lookup(step.Dialog)
		if err != nil {
			return err
		}
		return stack.End(d)

	case manifest.OpUnwind:
		stack.Unwind()
		return nil

	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

func printStep(n int, step manifest.Step, stack *turn.Stack) {
	top := stack.Top()
	fmt.Printf("%2d. %-7s %-16s depth=%d locale=%s intents=%d entities=%d expected-entities=%d\n",
		n, step.Op, step.Dialog, stack.Depth(), stack.Locale(),
		len(top.Possible.Intents), len(top.Possible.Entities), len(top.Expected.Entities))
}
