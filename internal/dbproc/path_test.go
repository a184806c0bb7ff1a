package dbproc

import "testing"

func TestPathStringRoundTrip(t *testing.T) {
	p := Path{1, 2, 10}
	s := p.String()
	got, err := ParsePath(s)
	if err != nil {
		t.Fatalf("ParsePath(%q): %v", s, err)
	}
	if len(got) != len(p) {
		t.Fatalf("round-trip length mismatch: got %v want %v", got, p)
	}
	for i := range p {
		if got[i] != p[i] {
			t.Fatalf("round-trip mismatch at %d: got %d want %d", i, got[i], p[i])
		}
	}
}

func TestPathLexicalOrderMatchesTraversal(t *testing.T) {
	root := Path{1}
	firstChild := root.Child(1)
	secondChild := root.Child(2)
	grandchild := firstChild.Child(1)

	if !(root.String() < firstChild.String() && firstChild.String() < grandchild.String() && grandchild.String() < secondChild.String()) {
		t.Fatalf("expected lexical order root < firstChild < grandchild < secondChild, got %q %q %q %q",
			root.String(), firstChild.String(), grandchild.String(), secondChild.String())
	}
}

func TestIsPrefixOf(t *testing.T) {
	root := Path{1}
	child := root.Child(3)
	grandchild := child.Child(2)
	sibling := root.Child(4)

	if !root.IsPrefixOf(grandchild) {
		t.Error("root should be an ancestor of grandchild")
	}
	if !child.IsPrefixOf(grandchild) {
		t.Error("child should be an ancestor of grandchild")
	}
	if sibling.IsPrefixOf(grandchild) {
		t.Error("sibling should not be an ancestor of grandchild")
	}
	if grandchild.IsPrefixOf(child) {
		t.Error("a longer path cannot be an ancestor of a shorter one")
	}
}

func TestPrefixRangeSentinelSortsBetweenDotAndDigits(t *testing.T) {
	if !('.' < '/' && '/' < '0') {
		t.Fatalf("assumption about ASCII ordering of '.', '/', '0' no longer holds")
	}

	p := Path{1, 2}
	lo, hi := p.PrefixRange()
	descendant := p.Child(5).String()
	sibling := Path{1, 3}.String()

	if !(lo <= descendant && descendant < hi) {
		t.Errorf("descendant %q should fall within [%q, %q)", descendant, lo, hi)
	}
	if !(sibling >= hi) {
		t.Errorf("sibling %q should fall outside [%q, %q)", sibling, lo, hi)
	}
}

func TestDepthAndRootID(t *testing.T) {
	p := Path{7, 1, 1}
	if p.Depth() != 3 {
		t.Errorf("Depth() = %d, want 3", p.Depth())
	}
	if p.RootID() != 7 {
		t.Errorf("RootID() = %d, want 7", p.RootID())
	}
}
