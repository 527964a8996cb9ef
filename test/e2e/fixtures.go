// Package e2e tests the full pipeline; this file renders corpus papers as the
// Atom feed the arXiv API would serve for them.
package e2e

import (
	"fmt"
	"strings"
	"time"
)

// AtomFeed renders papers as an arXiv API query response. Corpus text is plain
// ASCII without XML metacharacters, so entries are written verbatim.
func AtomFeed(papers []E2EPaper) []byte {
	base := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">` + "\n")
	b.WriteString("  <title type=\"html\">ArXiv Query: search_query=cat:cs.LG</title>\n")
	b.WriteString("  <id>http://arxiv.org/api/e2e-fixture</id>\n")
	fmt.Fprintf(&b, "  <updated>%s</updated>\n", base.Format(time.RFC3339))
	for i, p := range papers {
		stamp := base.Add(time.Duration(i) * 6 * time.Hour).Format(time.RFC3339)
		b.WriteString("  <entry>\n")
		fmt.Fprintf(&b, "    <id>http://arxiv.org/abs/%sv1</id>\n", p.ArxivID)
		fmt.Fprintf(&b, "    <updated>%s</updated>\n", stamp)
		fmt.Fprintf(&b, "    <published>%s</published>\n", stamp)
		fmt.Fprintf(&b, "    <title>%s</title>\n", p.Title)
		fmt.Fprintf(&b, "    <summary>%s</summary>\n", p.Abstract)
		for _, name := range corpusAuthors(i) {
			fmt.Fprintf(&b, "    <author><name>%s</name></author>\n", name)
		}
		fmt.Fprintf(&b, "    <arxiv:primary_category term=%q scheme=\"http://arxiv.org/schemas/atom\"/>\n", p.Category)
		fmt.Fprintf(&b, "    <category term=%q scheme=\"http://arxiv.org/schemas/atom\"/>\n", p.Category)
		fmt.Fprintf(&b, "    <link href=\"http://arxiv.org/abs/%sv1\" rel=\"alternate\" type=\"text/html\"/>\n", p.ArxivID)
		fmt.Fprintf(&b, "    <link title=\"pdf\" href=\"http://arxiv.org/pdf/%sv1\" rel=\"related\" type=\"application/pdf\"/>\n", p.ArxivID)
		b.WriteString("  </entry>\n")
	}
	b.WriteString("</feed>\n")
	return []byte(b.String())
}
