package exclude

import "testing"

func TestAddRejectsInverted(t *testing.T) {
	s := New()
	if err := s.Add(10, 5); err == nil {
		t.Fatalf("expected error for start > end")
	}
}

func TestContainsBasic(t *testing.T) {
	s := New()
	if err := s.Add(100, 200); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if !s.Contains(100) || !s.Contains(150) || !s.Contains(200) {
		t.Fatalf("expected 100..200 to be contained")
	}
	if s.Contains(99) || s.Contains(201) {
		t.Fatalf("expected addresses outside the range to be excluded")
	}
}

func TestAddMergesOverlap(t *testing.T) {
	s := New()
	mustAdd(t, s, 100, 200)
	mustAdd(t, s, 150, 250)

	if s.Len() != 1 {
		t.Fatalf("expected overlap to merge into a single range, got %d", s.Len())
	}
	if !s.Contains(225) {
		t.Fatalf("expected merged range to cover 225")
	}
}

func TestAddMergesTouching(t *testing.T) {
	s := New()
	mustAdd(t, s, 100, 200)
	mustAdd(t, s, 201, 300)

	if s.Len() != 1 {
		t.Fatalf("expected touching ranges to merge, got %d ranges", s.Len())
	}
}

func TestAddDoesNotMergeGap(t *testing.T) {
	s := New()
	mustAdd(t, s, 100, 200)
	mustAdd(t, s, 202, 300)

	if s.Len() != 2 {
		t.Fatalf("expected a one-address gap to keep ranges disjoint, got %d", s.Len())
	}
}

func TestAddTransitiveMerge(t *testing.T) {
	s := New()
	mustAdd(t, s, 100, 110)
	mustAdd(t, s, 120, 130)
	mustAdd(t, s, 140, 150)

	// This bridges all three disjoint ranges into one.
	mustAdd(t, s, 105, 145)

	if s.Len() != 1 {
		t.Fatalf("expected transitive merge across three ranges, got %d", s.Len())
	}
	if !s.Contains(100) || !s.Contains(150) {
		t.Fatalf("expected merged range to span the original endpoints")
	}
}

func TestAddKeepsDisjointInvariant(t *testing.T) {
	s := New()
	mustAdd(t, s, 500, 600)
	mustAdd(t, s, 100, 200)
	mustAdd(t, s, 300, 400)

	if s.Len() != 3 {
		t.Fatalf("expected 3 disjoint ranges, got %d", s.Len())
	}
	for i := 1; i < s.Len(); i++ {
		if s.ranges[i-1].End+1 >= s.ranges[i].Start {
			t.Fatalf("ranges %d and %d are not disjoint/non-touching", i-1, i)
		}
	}
}

func mustAdd(t *testing.T, s *Set, start, end uint32) {
	t.Helper()
	if err := s.Add(start, end); err != nil {
		t.Fatalf("Add(%d, %d): %v", start, end, err)
	}
}
