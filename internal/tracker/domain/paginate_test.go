package domain

import (
	"reflect"
	"testing"
)

func TestPaginateMiddlePage(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	page := Paginate(items, 1, 2)

	if !reflect.DeepEqual(page.Items, []string{"c", "d"}) {
		t.Fatalf("expected [c d], got %v", page.Items)
	}
	if !page.HasPrev || !page.HasNext {
		t.Fatalf("expected prev and next on a middle page, got %+v", page)
	}
	if page.Last != 2 {
		t.Fatalf("expected last page 2, got %d", page.Last)
	}
}

func TestPaginateClampsOutOfRangeIndex(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	high := Paginate(items, 99, 2)
	boundary := Paginate(items, 2, 2)
	if !reflect.DeepEqual(high.Items, boundary.Items) || high.Index != boundary.Index {
		t.Fatalf("high index must clamp to last page: %+v vs %+v", high, boundary)
	}

	low := Paginate(items, -3, 2)
	first := Paginate(items, 0, 2)
	if !reflect.DeepEqual(low.Items, first.Items) || low.Index != first.Index {
		t.Fatalf("negative index must clamp to first page: %+v vs %+v", low, first)
	}
}

func TestPaginateEmptyList(t *testing.T) {
	page := Paginate([]string{}, 3, 10)
	if len(page.Items) != 0 || page.Index != 0 || page.Last != 0 {
		t.Fatalf("expected single empty page, got %+v", page)
	}
	if page.HasPrev || page.HasNext {
		t.Fatalf("empty page must have no nav, got %+v", page)
	}
}

func TestPaginateExactMultiple(t *testing.T) {
	page := Paginate([]int{1, 2, 3, 4}, 1, 2)
	if page.HasNext {
		t.Fatalf("last full page must not advertise next, got %+v", page)
	}
	if !page.HasPrev {
		t.Fatalf("second page must advertise prev, got %+v", page)
	}
}
