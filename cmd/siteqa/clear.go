package main

import (
	"fmt"

	"github.com/fwojciec/siteqa"
)

// Run executes the clear command.
func (c *ClearCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return siteqa.Errorf(siteqa.EINVALID, "use --force to confirm deletion")
	}

	if err := deps.Documents.ClearDocuments(deps.Ctx); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(err))
		return err
	}

	if deps.Snapshots != nil {
		if err := deps.Snapshots.Remove(); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(err))
			return err
		}
	}
	if deps.Invalidate != nil {
		deps.Invalidate()
	}

	fmt.Fprintln(deps.Stdout, "Cleared all documents")
	return nil
}
