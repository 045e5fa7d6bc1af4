package coordmap

import (
	"testing"

	"github.com/biogo/hts/sam"
	"github.com/grailbio/testutil/expect"

	"github.com/grailbio/gqc/internal/gqc/align"
)

func cop(t sam.CigarOpType, n int) sam.CigarOp { return sam.NewCigarOp(t, n) }

func TestBuildQArrayForPlainMatch(t *testing.T) {
	a := &align.Alignment{RStart: 100, REnd: 109, Cigar: sam.Cigar{cop(sam.CigarMatch, 10)}}
	m, err := Build(a)
	expect.NoError(t, err)
	expect.EQ(t, len(m.Q), 11)
	for i := 0; i < 10; i++ {
		expect.EQ(t, m.Q[i], i)
	}
	expect.EQ(t, m.Q[10], 9)
}

func TestRefPosToQueryPosOnPlainMatch(t *testing.T) {
	a := &align.Alignment{RStart: 100, REnd: 109, Cigar: sam.Cigar{cop(sam.CigarMatch, 10)}}
	m, err := Build(a)
	expect.NoError(t, err)
	q, ok := m.RefPosToQueryPos(105, Lower)
	expect.True(t, ok)
	expect.EQ(t, q, 5)
}

func TestRefPosToQueryPosOutOfRange(t *testing.T) {
	a := &align.Alignment{RStart: 100, REnd: 109, Cigar: sam.Cigar{cop(sam.CigarMatch, 10)}}
	m, err := Build(a)
	expect.NoError(t, err)
	_, ok := m.RefPosToQueryPos(50, Lower)
	expect.False(t, ok)
}

func TestRefPosToQueryPosInsideDeletionHonorsPolicy(t *testing.T) {
	// 5M 4D 5M, RStart=100: ref offsets 5..8 (1-based 105..108) fall in the
	// deletion with no corresponding query offset.
	a := &align.Alignment{RStart: 100, REnd: 113, Cigar: sam.Cigar{cop(sam.CigarMatch, 5), cop(sam.CigarDeletion, 4), cop(sam.CigarMatch, 5)}}
	m, err := Build(a)
	expect.NoError(t, err)

	lower, ok := m.RefPosToQueryPos(106, Lower)
	expect.True(t, ok)
	expect.EQ(t, lower, 4)

	higher, ok := m.RefPosToQueryPos(106, Higher)
	expect.True(t, ok)
	expect.EQ(t, higher, 5)
}

func TestQAtClampsOutOfRangeOffsets(t *testing.T) {
	a := &align.Alignment{RStart: 1, REnd: 10, Cigar: sam.Cigar{cop(sam.CigarMatch, 10)}}
	m, err := Build(a)
	expect.NoError(t, err)
	expect.EQ(t, m.QAt(-5), m.Q[0])
	expect.EQ(t, m.QAt(1000), m.Q[len(m.Q)-1])
}
