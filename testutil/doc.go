// Package testutil provides fixtures for search tests.
//
// This package is intended for use in tests and benchmarks only.
//
// # Fixture Builder
//
//	repo := testutil.NewBuilder().
//		Datatype(testutil.Doc, "doc", testutil.Children(testutil.Section)).
//		Field(testutil.Doc, testutil.Title, facet.Text).
//		Record(1, testutil.Doc, 0).
//		Text(1, testutil.Title, "hello").
//		MustBuild(t)
//
// # Scenarios
//
//	repo := testutil.DocSections(t, "intro", "body", "body")
//
// # Randomized Datasets
//
//	rng := testutil.NewRNG(seed)
//	fixture := rng.Docs(100, 5, testutil.Words)
package testutil
