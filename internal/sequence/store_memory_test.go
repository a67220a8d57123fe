package sequence

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"
)

type InMemoryAllocatorSuite struct {
	suite.Suite
	alloc *InMemoryAllocator
	ctx   context.Context
}

func TestInMemoryAllocatorSuite(t *testing.T) {
	suite.Run(t, new(InMemoryAllocatorSuite))
}

func (s *InMemoryAllocatorSuite) SetupTest() {
	s.alloc = NewInMemory()
	s.ctx = context.Background()
}

func (s *InMemoryAllocatorSuite) TestFreshYearStartsAtOne() {
	g, err := s.alloc.Allocate(s.ctx, 2024)
	s.Require().NoError(err)
	s.Equal("2024/0001", g.String())

	g, err = s.alloc.Allocate(s.ctx, 2024)
	s.Require().NoError(err)
	s.Equal("2024/0002", g.String())
}

func (s *InMemoryAllocatorSuite) TestYearIsolation() {
	for range 5 {
		_, err := s.alloc.Allocate(s.ctx, 2024)
		s.Require().NoError(err)
	}

	g, err := s.alloc.Allocate(s.ctx, 2025)
	s.Require().NoError(err)
	s.Equal("2025/0001", g.String(), "new year starts fresh regardless of prior year's counter")

	g, err = s.alloc.Allocate(s.ctx, 2024)
	s.Require().NoError(err)
	s.Equal("2024/0006", g.String(), "old year's counter unaffected by the new year")
}

func (s *InMemoryAllocatorSuite) TestInvalidYearRejected() {
	_, err := s.alloc.Allocate(s.ctx, 0)
	s.Error(err)
	_, err = s.alloc.Allocate(s.ctx, -2024)
	s.Error(err)
}

// TestConcurrentAllocationsAreGapFree runs N concurrent allocations against
// a fresh counter and verifies the result is exactly {1..N}: no duplicates,
// no gaps.
func (s *InMemoryAllocatorSuite) TestConcurrentAllocationsAreGapFree() {
	const n = 200

	var mu sync.Mutex
	seqs := make([]int, 0, n)

	var g errgroup.Group
	for range n {
		g.Go(func() error {
			gn, err := s.alloc.Allocate(s.ctx, 2024)
			if err != nil {
				return err
			}
			mu.Lock()
			seqs = append(seqs, gn.Sequence)
			mu.Unlock()
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	sort.Ints(seqs)
	s.Require().Len(seqs, n)
	for i, seq := range seqs {
		s.Equal(i+1, seq, "sequence numbers must form 1..N with no gaps or duplicates")
	}
}

func TestGNumberFormat(t *testing.T) {
	g := GNumber{Year: 2024, Sequence: 7}
	if got := g.String(); got != "2024/0007" {
		t.Fatalf("expected 2024/0007, got %s", got)
	}
	g = GNumber{Year: 2025, Sequence: 12345}
	if got := g.String(); got != "2025/12345" {
		t.Fatalf("sequences past 9999 keep all digits, got %s", got)
	}
}

func TestParseGNumber(t *testing.T) {
	g, err := Parse("2024/0042")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Year != 2024 || g.Sequence != 42 {
		t.Fatalf("unexpected parse result: %+v", g)
	}

	for _, bad := range []string{"", "2024", "2024/", "/0042", "abcd/0042", "2024/00x2", "0/0001", "2024/0000"} {
		if _, err := Parse(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
