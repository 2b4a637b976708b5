package search

import (
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/readingnook/readingnook-server/internal/domain"
)

// buildQuery ORs field matches with title-weighted boosts. Terms of the form
// status:<value> or format:<value> become required filters.
func buildQuery(raw string) query.Query {
	var filters []query.Query
	var words []string

	for _, tok := range strings.Fields(raw) {
		field, value, ok := strings.Cut(tok, ":")
		if ok && value != "" {
			switch field {
			case "status":
				if domain.Status(value).Valid() {
					filters = append(filters, termOn("status", value))
					continue
				}
			case "format":
				if domain.Format(value).Valid() {
					filters = append(filters, termOn("format", value))
					continue
				}
			}
		}
		words = append(words, tok)
	}

	text := strings.Join(words, " ")
	if text == "" && len(filters) == 0 {
		return bleve.NewMatchNoneQuery()
	}

	var queries []query.Query
	if text != "" {
		queries = append(queries, textQuery(text))
	}
	queries = append(queries, filters...)

	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}

func textQuery(text string) query.Query {
	var textQueries []query.Query

	titleMatch := bleve.NewMatchQuery(text)
	titleMatch.SetField("title")
	titleMatch.SetBoost(3.0)
	textQueries = append(textQueries, titleMatch)

	authorMatch := bleve.NewMatchQuery(text)
	authorMatch.SetField("authors")
	authorMatch.SetBoost(2.0)
	textQueries = append(textQueries, authorMatch)

	for _, field := range []string{"notes", "categories", "description"} {
		m := bleve.NewMatchQuery(text)
		m.SetField(field)
		textQueries = append(textQueries, m)
	}

	isbn := bleve.NewTermQuery(strings.ReplaceAll(text, "-", ""))
	isbn.SetField("isbn")
	textQueries = append(textQueries, isbn)

	// Single words also get typo tolerance and prefix matching on the title.
	if !strings.Contains(text, " ") {
		lower := strings.ToLower(text)

		fuzzy := bleve.NewFuzzyQuery(lower)
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("title")
		fuzzy.SetBoost(0.8)
		textQueries = append(textQueries, fuzzy)

		if len(lower) >= 2 {
			prefix := bleve.NewPrefixQuery(lower)
			prefix.SetField("title")
			prefix.SetBoost(0.5)
			textQueries = append(textQueries, prefix)
		}
	}

	return bleve.NewDisjunctionQuery(textQueries...)
}

func termOn(field, value string) query.Query {
	q := bleve.NewTermQuery(value)
	q.SetField(field)
	return q
}
