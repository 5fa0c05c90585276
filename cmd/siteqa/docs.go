package main

import (
	"fmt"
	"path/filepath"

	"github.com/fwojciec/siteqa"
	"github.com/fwojciec/siteqa/fs"
)

// Run executes the docs command.
func (c *DocsCmd) Run(deps *Dependencies) error {
	docs, err := deps.Documents.Documents(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(err))
		return err
	}

	if len(docs) == 0 {
		fmt.Fprintln(deps.Stderr, "error: no documents stored. Run 'siteqa crawl <url>' first.")
		return siteqa.Errorf(siteqa.ENOTFOUND, "no documents stored")
	}

	if c.Export != "" {
		exporter := fs.NewExporter(filepath.Dir(c.Export), filepath.Base(c.Export))
		n, err := exporter.Export(deps.Ctx, docs)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(err))
			return err
		}
		fmt.Fprintf(deps.Stdout, "Exported %d documents to %s\n", n, exporter.Dir())
		return nil
	}

	fmt.Fprintf(deps.Stdout, "Documents (%d total):\n\n", len(docs))
	for i, doc := range docs {
		title := doc.Title
		if title == "" {
			title = doc.URL
		}
		fmt.Fprintf(deps.Stdout, "  %d. %s\n     %s\n", i+1, title, doc.URL)
	}
	return nil
}
