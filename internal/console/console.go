// Package console implements the blocking read-eval loop over stdin/stdout.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"docchat/internal/session"
)

const (
	Prompt      = "Your Question: "
	AnswerLabel = "AI Answer: "
	exitToken   = "exit"
)

// IsExit reports whether line asks the loop to terminate.
func IsExit(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), exitToken)
}

// Run reads one question per line from in and prints each answer to out until
// "exit" (any case), end of input or cancellation of ctx. A failed query ends
// the loop with its error; there is no retry. Blank lines are skipped without
// a query.
func Run(ctx context.Context, in io.Reader, out io.Writer, asker session.Asker) error {
	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	lines, readErr := readLines(readCtx, in)
	for {
		if _, err := fmt.Fprint(out, Prompt); err != nil {
			return err
		}
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return ctx.Err()
		case line, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(out)
			return <-readErr
		}
		question := strings.TrimRight(line, "\r")
		if IsExit(question) {
			return nil
		}
		if strings.TrimSpace(question) == "" {
			continue
		}
		resp, err := asker.Query(ctx, question)
		if err != nil {
			return fmt.Errorf("query %q: %w", question, err)
		}
		if _, err := fmt.Fprintf(out, "\n%s%s\n\n", AnswerLabel, resp); err != nil {
			return err
		}
	}
}

// readLines scans in on its own goroutine so a blocked read never delays
// cancellation. The goroutine stays parked in the read until in delivers data
// or is closed; readErr receives the scanner error once lines is closed.
func readLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()
	return lines, readErr
}
