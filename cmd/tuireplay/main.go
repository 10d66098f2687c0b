// Command tuireplay verifies a recorded render trace: it reconstructs
// the screen frame by frame from the payload files, applying full-buffer
// and diff-run payloads in order, and checks each frame's reconstructed
// content against the checksum the producer recorded. A mismatch means
// the trace and its payloads no longer describe the same frames.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tuicore"
)

var noColor bool

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tuireplay [trace.jsonl]",
		Short: "Replay and verify a render trace",
		Args:  cobra.ExactArgs(1),
		RunE:  runReplay,
	}
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored summary output")
	return cmd
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	records, err := tuicore.ReadTrace(f)
	if err != nil {
		return err
	}

	// Payload paths are resolved relative to the trace file, so a trace
	// directory can be moved or archived as a unit.
	baseDir := filepath.Dir(args[0])

	pool := tuicore.NewGraphemePool()
	var grid *tuicore.Buffer

	color := !noColor && term.IsTerminal(int(os.Stdout.Fd()))
	mismatches := 0
	for _, rec := range records {
		if grid == nil || grid.Width() != rec.Cols || grid.Height() != rec.Rows {
			grid = tuicore.NewBuffer(rec.Cols, rec.Rows, pool)
		}

		if rec.PayloadKind != tuicore.PayloadNone {
			payload, err := os.ReadFile(resolvePayloadPath(baseDir, rec.PayloadPath))
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "frame %d: cannot read payload %s: %v\n", rec.FrameIdx, rec.PayloadPath, err)
				mismatches++
				continue
			}
			switch rec.PayloadKind {
			case tuicore.PayloadFullBuffer:
				err = tuicore.ApplyFullBuffer(grid, payload)
			case tuicore.PayloadDiffRuns:
				err = tuicore.ApplyDiffRuns(grid, payload)
			default:
				err = fmt.Errorf("unknown payload kind %q", rec.PayloadKind)
			}
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "frame %d: %v\n", rec.FrameIdx, err)
				mismatches++
				continue
			}
		}

		if sum := tuicore.ChecksumBuffer(grid); sum != rec.Checksum {
			mismatches++
			reportMismatch(cmd, rec, sum, color)
		}
	}

	if mismatches == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "ok: %d frames verified\n", len(records))
		return nil
	}
	return fmt.Errorf("tuireplay: %d of %d frames mismatched", mismatches, len(records))
}

// resolvePayloadPath keeps absolute payload paths as recorded and
// anchors relative ones next to the trace file.
func resolvePayloadPath(baseDir, payloadPath string) string {
	if filepath.IsAbs(payloadPath) {
		return payloadPath
	}
	return filepath.Join(baseDir, payloadPath)
}

func reportMismatch(cmd *cobra.Command, rec tuicore.TraceRecord, got uint64, color bool) {
	const (
		red   = "\x1b[31m"
		reset = "\x1b[0m"
	)
	prefix, suffix := "", ""
	if color {
		prefix, suffix = red, reset
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%sframe %d: checksum mismatch: want %016x, got %016x%s\n",
		prefix, rec.FrameIdx, rec.Checksum, got, suffix)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
