package main

import (
	"fmt"

	"github.com/fwojciec/siteqa"
)

// Run executes the ask command.
func (c *AskCmd) Run(deps *Dependencies) error {
	k := deps.Config.Index.K
	if c.K != 0 {
		k = c.K
	}

	answer, err := siteqa.Ask(deps.Ctx, deps.Retriever, deps.Asker, c.Question, siteqa.RetrieveOptions{
		K:           k,
		AutoReindex: true,
		MinScore:    deps.Config.Index.MinScore,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(err))
		return err
	}

	if answer.AskError != "" {
		fmt.Fprintf(deps.Stderr, "warning: answer generation failed, showing retrieved pages: %s\n", answer.AskError)
	}
	fmt.Fprintln(deps.Stdout, answer.Answer)

	if deps.Exchanges != nil {
		ex := &siteqa.Exchange{Question: c.Question, Answer: answer.Answer}
		if err := deps.Exchanges.CreateExchange(deps.Ctx, ex); err != nil {
			deps.logger().Warn("recording exchange failed", "error", err)
		}
	}
	return nil
}
