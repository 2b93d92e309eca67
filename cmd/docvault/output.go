package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/poiesic/docvault/core"
)

func formatTags(tags []string) string {
	if len(tags) == 0 {
		return "-"
	}
	return strings.Join(tags, ", ")
}

func printDocuments(w io.Writer, docs []*core.Document) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCREATED\tTAGS")
	for _, doc := range docs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", doc.Id, doc.Name, doc.CreatedAt.Format(time.DateTime), formatTags(doc.Tags))
	}
	return tw.Flush()
}

func printTags(w io.Writer, tags []*core.Tag) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, tag := range tags {
		fmt.Fprintf(tw, "%d\t%s\n", tag.Id, tag.Name)
	}
	return tw.Flush()
}

func printResults(w io.Writer, results []*core.SearchResult) {
	fmt.Fprintf(w, "Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Fprintf(w, "%d: '%s' (%s #%d)[%0.3f]\n", i, hit.Chunk.Text, hit.DocumentName, hit.Chunk.Id, hit.Score)
	}
}
