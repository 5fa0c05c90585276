// Package siteqa answers natural language questions about a crawled web site.
// It crawls pages breadth-first into a document store, builds a TF-IDF
// similarity index over the stored corpus, and retrieves the passages most
// relevant to a query so they can be handed to a language model.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, goquery/, gemini/).
package siteqa
