package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// RunLines reads commands from r one per line until EOF or ctx is done.
// Parse errors are reported on out and do not stop the reader.
func RunLines(ctx context.Context, r io.Reader, out io.Writer, submit SubmitFunc) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			return err
		case line := <-lines:
			line = strings.TrimSpace(line)
			switch line {
			case "":
				continue
			case "?", "help":
				fmt.Fprintln(out, Usage)
				continue
			case "quit", "exit":
				return nil
			}
			if err := submit(line); err != nil {
				if errors.Is(err, ErrUnknownCommand) {
					fmt.Fprintf(out, "%v (type ? for help)\n", err)
					continue
				}
				fmt.Fprintln(out, err)
			}
		}
	}
}
