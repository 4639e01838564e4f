// Command nscript is the CLI shell around the nscript runtime: run a
// script file, evaluate a one-off expression, or drop into a REPL
// (spec.md §6, the "outer surface" a core-language Non-goal never scopes
// out). Grounded on examples/cli/cli.go's role in the teacher (a thin
// main wiring flags to the library) generalized from stdlib flag parsing
// to cobra subcommands, matching the moby/moby cmd/ convention of one
// cobra.Command per verb with persistent --debug/--verbose flags.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ChandruSu/nscript"
	"github.com/ChandruSu/nscript/stdlib/mathmod"
	"github.com/ChandruSu/nscript/stdlib/std"
)

var (
	debug   bool
	verbose bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nscript",
		Short: "nscript runs and evaluates nscript programs",
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable trace-level VM dispatch logging")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug-level logging")

	root.AddCommand(newRunCmd())
	root.AddCommand(newEvalCmd())
	root.AddCommand(newReplCmd())
	return root
}

func newLogger() *logrus.Entry {
	log := logrus.New()
	switch {
	case debug:
		log.SetLevel(logrus.TraceLevel)
	case verbose:
		log.SetLevel(logrus.DebugLevel)
	default:
		log.SetLevel(logrus.WarnLevel)
	}
	return logrus.NewEntry(log)
}

func newRuntime(args []string) *nscript.Runtime {
	cfg := nscript.NewConfig().
		WithStdout(os.Stdout).
		WithLogger(newLogger()).
		WithArgs(args...)
	rt := nscript.NewRuntime(cfg)
	rt.RegisterModule(std.Module())
	rt.RegisterModule(mathmod.Module())
	return rt
}

func newRunCmd() *cobra.Command {
	var scriptArgs []string
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "run an nscript source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			src, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			rt := newRuntime(scriptArgs)
			if _, err := rt.Eval(path, string(src)); err != nil {
				printStackTrace(rt, err)
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&scriptArgs, "args", nil, "arguments visible to the script's std.args()")
	return cmd
}

func newEvalCmd() *cobra.Command {
	var scriptArgs []string
	cmd := &cobra.Command{
		Use:   "eval <source>",
		Short: "evaluate a single nscript expression or statement list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := newRuntime(scriptArgs)
			v, err := rt.Eval("<eval>", args[0])
			if err != nil {
				printStackTrace(rt, err)
				return err
			}
			fmt.Println(v.ToRepr(rt.Heap()))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&scriptArgs, "args", nil, "arguments visible to the script's std.args()")
	return cmd
}

func newReplCmd() *cobra.Command {
	var scriptArgs []string
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "start an interactive nscript session",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := newRuntime(scriptArgs)
			scanner := bufio.NewScanner(os.Stdin)
			fmt.Fprint(os.Stdout, "> ")
			for scanner.Scan() {
				line := scanner.Text()
				if line != "" {
					if _, err := rt.EvalLine("<repl>", line); err != nil {
						fmt.Fprintln(os.Stderr, err)
					} else if v, ok := rt.GetGlobal(nscript.ScratchResultName); ok {
						fmt.Fprintln(os.Stdout, v.ToRepr(rt.Heap()))
					}
				}
				fmt.Fprint(os.Stdout, "> ")
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringArrayVar(&scriptArgs, "args", nil, "arguments visible to the script's std.args()")
	return cmd
}

func printStackTrace(rt *nscript.Runtime, err error) {
	fmt.Fprintln(os.Stderr, err)
	for _, frame := range rt.StackTrace() {
		fmt.Fprintf(os.Stderr, "  at %s\n", frame)
	}
}
