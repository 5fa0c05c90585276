package main

import (
	"fmt"

	"github.com/fwojciec/siteqa"
)

// Run executes the query command.
func (c *QueryCmd) Run(deps *Dependencies) error {
	opts := siteqa.RetrieveOptions{
		K:           deps.Config.Index.K,
		AutoReindex: !c.NoReindex,
		MinScore:    deps.Config.Index.MinScore,
	}
	if c.K != 0 {
		opts.K = c.K
	}
	if c.MinScore != 0 {
		opts.MinScore = c.MinScore
	}

	passages, err := deps.Retriever.Retrieve(deps.Ctx, c.Text, opts)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(err))
		return err
	}

	if len(passages) == 0 {
		fmt.Fprintln(deps.Stdout, "No matching pages.")
		return nil
	}

	for i, p := range passages {
		title := p.Title
		if title == "" {
			title = p.URL
		}
		fmt.Fprintf(deps.Stdout, "%d. %s (%.4f)\n   %s\n", i+1, title, p.Score, p.URL)
		if p.Excerpt != "" {
			fmt.Fprintf(deps.Stdout, "   %s\n", siteqa.Excerpt(p.Excerpt, 200))
		}
		fmt.Fprintln(deps.Stdout)
	}
	return nil
}
