package main

import (
	"fmt"
)

// Run executes the reindex command.
func (c *ReindexCmd) Run(deps *Dependencies) error {
	result, err := deps.Retriever.Rebuild(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(err))
		return err
	}

	st := deps.Retriever.Status()
	fmt.Fprintf(deps.Stdout, "Indexed %d documents (%d terms, version %d)\n",
		result.DocumentsIndexed, st.Terms, st.Version)
	return nil
}
