package utils

import (
	"testing"
)

func TestSet(t *testing.T) {
	// Sets are created empty.
	s := MakeSet[int](10)
	if len(s) != 0 {
		t.Errorf("expected len 0, got %d", len(s))
	}

	// Check inserting and recovery.
	s.Insert(3, 7)
	if len(s) != 2 {
		t.Errorf("expected len 2, got %d", len(s))
	}
	if !s.Has(3) {
		t.Errorf("expected s.Has(3) to be true")
	}
	if !s.Has(7) {
		t.Errorf("expected s.Has(7) to be true")
	}
	if s.Has(5) {
		t.Errorf("expected s.Has(5) to be false")
	}

	s2 := SetWith(5, 7)
	s3 := s.Sub(s2)
	if len(s3) != 1 || !s3.Has(3) {
		t.Errorf("expected s3 == {3}, got %v", s3)
	}

	delete(s, 7)
	if !s.Equal(s3) {
		t.Errorf("expected s.Equal(s3) to be true")
	}
	if s.Equal(s2) {
		t.Errorf("expected s.Equal(s2) to be false")
	}
}

func TestNormalizeIdentifier(t *testing.T) {
	for _, test := range []struct{ in, want string }{
		{"conv2d", "conv2d"},
		{"2dGrid", "_2dGrid"},
		{"a-b.c", "a_b_c"},
		{"", ""},
	} {
		if got := NormalizeIdentifier(test.in); got != test.want {
			t.Errorf("NormalizeIdentifier(%q) = %q, want %q", test.in, got, test.want)
		}
	}
}
