package testutil

import (
	"testing"

	"github.com/hupe1980/facetree/dataset"
	"github.com/hupe1980/facetree/facet"
	"github.com/hupe1980/facetree/model"
)

// Doc/Section schema used by the scenario fixtures.
const (
	Doc     model.DatatypeID = 1
	Section model.DatatypeID = 2

	Title model.FieldID = 1
	Body  model.FieldID = 2
)

// Record ids of the Doc/Section scenario.
const (
	D1 model.RecordID = 1
	D2 model.RecordID = 2
	D3 model.RecordID = 3
	S1 model.RecordID = 11
	S2 model.RecordID = 12
	S3 model.RecordID = 13
)

// DocSectionsBuilder returns the builder behind DocSections so tests can
// extend the fixture.
//
// D1 owns S1 and S2, D2 owns S3 and D3 has no sections. Docs are titled
// alpha, beta and gamma.
func DocSectionsBuilder(s1, s2, s3 string) *Builder {
	return NewBuilder().
		Datatype(Doc, "doc", Public(), Children(Section)).
		Field(Doc, Title, facet.Text).
		Datatype(Section, "section", Public()).
		Field(Section, Body, facet.Text).
		Record(D1, Doc, 0).Text(D1, Title, "alpha").
		Record(D2, Doc, 0).Text(D2, Title, "beta").
		Record(D3, Doc, 0).Text(D3, Title, "gamma").
		Record(S1, Section, D1).Text(S1, Body, s1).
		Record(S2, Section, D1).Text(S2, Body, s2).
		Record(S3, Section, D2).Text(S3, Body, s3)
}

// DocSections builds the Doc/Section scenario with the given section bodies.
func DocSections(tb testing.TB, s1, s2, s3 string) *dataset.Repository {
	tb.Helper()
	return DocSectionsBuilder(s1, s2, s3).MustBuild(tb)
}

// Datatypes of the diamond fixture: A links to B and C, both link to D.
const (
	DiamondA model.DatatypeID = 1
	DiamondB model.DatatypeID = 2
	DiamondC model.DatatypeID = 3
	DiamondD model.DatatypeID = 4

	Label model.FieldID = 4
)

// Diamond builds the multi-path fixture.
//
// Record 1 (A) links to 21 (B) and 31 (C); 21 links to 41 labeled "red"
// and 31 links to 42 labeled "blue". Record 2 (A) links only to 22 (B),
// which links to 43 labeled "blue".
func Diamond(tb testing.TB) *dataset.Repository {
	tb.Helper()
	return NewBuilder().
		Datatype(DiamondA, "a", Public(), Links(DiamondB, DiamondC)).
		Datatype(DiamondB, "b", Public(), Links(DiamondD)).
		Datatype(DiamondC, "c", Public(), Links(DiamondD)).
		Datatype(DiamondD, "d", Public()).
		Field(DiamondD, Label, facet.Text).
		Record(1, DiamondA, 0).Link(1, 21, 31).
		Record(2, DiamondA, 0).Link(2, 22).
		Record(21, DiamondB, 0).Link(21, 41).
		Record(22, DiamondB, 0).Link(22, 43).
		Record(31, DiamondC, 0).Link(31, 42).
		Record(41, DiamondD, 0).Text(41, Label, "red").
		Record(42, DiamondD, 0).Text(42, Label, "blue").
		Record(43, DiamondD, 0).Text(43, Label, "blue").
		MustBuild(tb)
}
