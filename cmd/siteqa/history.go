package main

import (
	"fmt"
	"time"
)

// Run executes the history command.
func (c *HistoryCmd) Run(deps *Dependencies) error {
	exchanges, err := deps.Exchanges.FindExchanges(deps.Ctx, c.Limit)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(err))
		return err
	}

	if len(exchanges) == 0 {
		fmt.Fprintln(deps.Stdout, "No questions asked yet.")
		return nil
	}

	for _, ex := range exchanges {
		fmt.Fprintf(deps.Stdout, "[%s] Q: %s\n", ex.CreatedAt.Local().Format(time.DateTime), ex.Question)
		fmt.Fprintf(deps.Stdout, "A: %s\n\n", ex.Answer)
	}
	return nil
}
