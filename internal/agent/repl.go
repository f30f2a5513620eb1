// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-explorer/internal/apperr"
)

// Runner answers one user turn.
type Runner interface {
	Run(ctx context.Context, input string) (string, error)
}

// REPL reads user lines from In and writes replies to Out until the user
// types exit or quit, or In reaches EOF.
type REPL struct {
	Agent  Runner
	In     io.Reader
	Out    io.Writer
	Logger *zap.Logger
}

// Run drives the loop. A failed turn is reported on Out and the loop
// continues; Run only returns an error when ctx is cancelled or In fails.
func (r *REPL) Run(ctx context.Context) error {
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}

	fmt.Fprint(r.Out, "\n[Agent Ready] Ask about AI research papers or type 'exit' to quit.\n\n")

	sc := bufio.NewScanner(r.In)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(r.Out, "You: ")
		if !sc.Scan() {
			fmt.Fprintln(r.Out)
			return sc.Err()
		}

		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if isExit(line) {
			fmt.Fprintln(r.Out, "Exiting. Goodbye!")
			return nil
		}

		reply, err := r.Agent.Run(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("turn failed", zap.String("kind", string(apperr.KindOf(err))), zap.Error(err))
			fmt.Fprintf(r.Out, "%s\n\n", apperr.Describe(err))
			continue
		}
		fmt.Fprintf(r.Out, "Agent: %s\n\n", reply)
	}
}

func isExit(line string) bool {
	switch strings.ToLower(line) {
	case "exit", "quit":
		return true
	}
	return false
}
