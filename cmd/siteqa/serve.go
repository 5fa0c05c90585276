package main

import (
	"fmt"

	siteqahttp "github.com/fwojciec/siteqa/http"
)

// Run executes the serve command. It blocks until the context is canceled,
// then stops any running crawl and shuts the server down.
func (c *ServeCmd) Run(deps *Dependencies) error {
	addr := deps.Config.Server.Addr
	if c.Addr != "" {
		addr = c.Addr
	}

	srv := &siteqahttp.Server{
		Retriever: deps.Retriever,
		Asker:     deps.Asker,
		Exchanges: deps.Exchanges,
		Metrics:   deps.Metrics,
		Logger:    deps.Logger,
		DefaultK:  deps.Config.Index.K,
	}
	if deps.Crawler != nil {
		srv.Crawler = deps.Crawler
		defer func() {
			deps.Crawler.Stop()
			deps.Crawler.Wait()
		}()
	}

	fmt.Fprintf(deps.Stdout, "Listening on %s\n", addr)
	if err := srv.ListenAndServe(deps.Ctx, addr); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(err))
		return err
	}
	return nil
}
