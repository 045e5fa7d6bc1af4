package structreport

import (
	"testing"

	"github.com/grailbio/testutil/expect"

	"github.com/grailbio/gqc/internal/gqc/align"
)

func mkAlign(query string, strand align.Strand, rStart, rEnd, qStart, qEnd int) *align.Alignment {
	return &align.Alignment{
		Query: query, Ref: "chr1", Strand: strand,
		RStart: rStart, REnd: rEnd,
		QStart: qStart, QEnd: qEnd,
	}
}

func TestReportSameContigDeletion(t *testing.T) {
	a1 := mkAlign("q1", align.Forward, 1, 100, 1, 100)
	a2 := mkAlign("q1", align.Forward, 150, 250, 101, 201)
	joins := Report([]*align.Alignment{a1, a2})
	expect.EQ(t, len(joins), 1)
	expect.EQ(t, joins[0].Kind, SameContigDeletion)
	expect.EQ(t, joins[0].Start, 100)
	expect.EQ(t, joins[0].End, 150)
}

func TestReportSameContigInsertion(t *testing.T) {
	// Ref spans overlap (cur starts before prev ends), same query.
	a1 := mkAlign("q1", align.Forward, 1, 100, 1, 100)
	a2 := mkAlign("q1", align.Forward, 80, 200, 101, 221)
	joins := Report([]*align.Alignment{a1, a2})
	expect.EQ(t, len(joins), 1)
	expect.EQ(t, joins[0].Kind, SameContigInsertion)
}

func TestReportBetweenContigDeletion(t *testing.T) {
	a1 := mkAlign("q1", align.Forward, 1, 100, 1, 100)
	a2 := mkAlign("q2", align.Forward, 150, 250, 1, 101)
	joins := Report([]*align.Alignment{a1, a2})
	expect.EQ(t, len(joins), 1)
	expect.EQ(t, joins[0].Kind, BetweenContigDeletion)
}

func TestReportInversionOnStrandMismatch(t *testing.T) {
	a1 := mkAlign("q1", align.Forward, 1, 100, 1, 100)
	a2 := mkAlign("q1", align.Reverse, 150, 250, 1, 101)
	joins := Report([]*align.Alignment{a1, a2})
	expect.EQ(t, len(joins), 1)
	expect.EQ(t, joins[0].Kind, Inversion)
}

func TestReportLISJumpOnNonMonotonicQuery(t *testing.T) {
	// Same query, same strand, but query coordinates run backwards across
	// the join.
	a1 := mkAlign("q1", align.Forward, 1, 100, 500, 600)
	a2 := mkAlign("q1", align.Forward, 150, 250, 1, 101)
	joins := Report([]*align.Alignment{a1, a2})
	expect.EQ(t, len(joins), 1)
	expect.EQ(t, joins[0].Kind, LISJump)
}

func TestReportSkipsDifferentRefEntries(t *testing.T) {
	a1 := mkAlign("q1", align.Forward, 1, 100, 1, 100)
	a2 := &align.Alignment{Query: "q1", Ref: "chr2", RStart: 1, REnd: 100, QStart: 101, QEnd: 200}
	joins := Report([]*align.Alignment{a1, a2})
	expect.EQ(t, len(joins), 0)
}
