package helper

import "testing"

func TestBuildPaginationFromPage(t *testing.T) {
	p := BuildPaginationFromPage(45, 2, 20)
	if p.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", p.TotalPages)
	}
	if !p.HasNext || !p.HasPrev {
		t.Errorf("HasNext/HasPrev = %v/%v, want true/true", p.HasNext, p.HasPrev)
	}

	first := BuildPaginationFromPage(45, 1, 20)
	if first.HasPrev {
		t.Error("first page reports HasPrev")
	}
	last := BuildPaginationFromPage(45, 3, 20)
	if last.HasNext {
		t.Error("last page reports HasNext")
	}

	// an empty result still renders as one page
	empty := BuildPaginationFromPage(0, 1, 20)
	if empty.TotalPages != 1 || empty.HasNext || empty.HasPrev {
		t.Errorf("empty result: %+v", empty)
	}
}
