package facetree_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/facetree"
	"github.com/hupe1980/facetree/dataset"
	"github.com/hupe1980/facetree/facet"
	"github.com/hupe1980/facetree/model"
)

const (
	exampleDoc     model.DatatypeID = 1
	exampleSection model.DatatypeID = 2
	exampleBody    model.FieldID    = 1
)

func exampleRepository() *dataset.Repository {
	repo, err := dataset.New(dataset.Fixture{
		Datatypes: []dataset.DatatypeSpec{
			{ID: exampleDoc, Name: "doc", Public: true, Children: []model.DatatypeID{exampleSection}},
			{ID: exampleSection, Name: "section", Public: true, Fields: []dataset.Field{
				{ID: exampleBody, Name: "body", Kind: facet.Text},
			}},
		},
		Records: []dataset.Record{
			{ID: 1, Datatype: exampleDoc},
			{ID: 2, Datatype: exampleDoc},
			{ID: 3, Datatype: exampleDoc},
			{ID: 11, Datatype: exampleSection, Parent: 1, Values: map[model.FieldID]facet.Value{exampleBody: {Text: "intro"}}},
			{ID: 12, Datatype: exampleSection, Parent: 1, Values: map[model.FieldID]facet.Value{exampleBody: {Text: "other"}}},
			{ID: 13, Datatype: exampleSection, Parent: 2, Values: map[model.FieldID]facet.Value{exampleBody: {Text: "body"}}},
		},
	})
	if err != nil {
		log.Fatal(err)
	}
	return repo
}

// Example_advancedSearch finds docs with a section whose body is "intro".
func Example_advancedSearch() {
	eng, err := facetree.New(exampleRepository())
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	res, err := eng.Search(context.Background(), facetree.Request{
		Roots: []model.DatatypeID{exampleDoc},
		Criteria: facet.Criteria{Advanced: []facet.Facet{{
			ID:       "body",
			Datatype: exampleSection,
			Terms: []facet.Term{{
				Datatype: exampleSection, Field: exampleBody, Kind: facet.Text, Op: facet.Equal, Value: "intro",
			}},
		}}},
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(res.TopLevel)
	// Output: [1]
}

// Example_guardedSearch shows that a doc without sections satisfies a
// negated section term.
func Example_guardedSearch() {
	eng, err := facetree.New(exampleRepository())
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	res, err := eng.Search(context.Background(), facetree.Request{
		Roots: []model.DatatypeID{exampleDoc},
		Criteria: facet.Criteria{Advanced: []facet.Facet{{
			ID:       "body",
			Datatype: exampleSection,
			Terms: []facet.Term{{
				Datatype: exampleSection, Field: exampleBody, Kind: facet.Text, Op: facet.NotEqual, Value: "intro",
			}},
		}}},
		Complete: true,
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(res.TopLevel)
	fmt.Println(res.Complete)
	// Output:
	// [1 2 3]
	// [1 2 3 12 13]
}

// Example_metrics demonstrates collecting search metrics.
func Example_metrics() {
	metrics := &facetree.BasicMetricsCollector{}
	eng, err := facetree.New(exampleRepository(), facetree.WithMetricsCollector(metrics))
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	for _, text := range []string{"intro", "body"} {
		_, _ = eng.Search(context.Background(), facetree.Request{
			Roots:    []model.DatatypeID{exampleDoc},
			Criteria: facet.Criteria{General: []facet.Facet{facet.GeneralFacet(0, text)}},
		})
	}

	stats := metrics.GetStats()
	fmt.Printf("searches=%d matches=%d\n", stats.SearchCount, stats.SearchMatches)
	// Output: searches=2 matches=2
}
