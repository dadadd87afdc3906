package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Loop runs the interactive conversation: one utterance per line from in,
// one reply plus a store/no-store notice to out. It returns when the
// input stream ends or ctx is canceled. A failed turn is reported on out
// and the loop keeps going; the process-level failure mode is reserved
// for startup misconfiguration.
func (e *Engine) Loop(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fmt.Fprint(out, "you> ")
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			fmt.Fprint(out, "you> ")
			continue
		}

		turn, err := e.RunTurn(ctx, message)
		if err != nil {
			fmt.Fprintf(out, "(turn failed: %v)\n\nyou> ", err)
			continue
		}

		fmt.Fprintf(out, "\n%s\n", turn.Reply)
		switch {
		case turn.Stored():
			fmt.Fprintf(out, "[memory] stored %q under %q (tx %s)\n", turn.Decision.Summary, turn.Decision.Topic, turn.TxHash)
		case turn.StoreErr != nil:
			fmt.Fprintf(out, "[memory] store failed: %v\n", turn.StoreErr)
		default:
			fmt.Fprintln(out, "[memory] nothing stored")
		}
		fmt.Fprint(out, "\nyou> ")
	}
	return scanner.Err()
}
