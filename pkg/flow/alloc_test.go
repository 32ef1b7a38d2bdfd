package flow

import (
	"reflect"
	"testing"
)

func TestTrackAllocations(t *testing.T) {
	summaries := TrackAllocations(Lines(`allocate(hru(10))
allocate(res, cha)
x = 1
deallocate(hru)
deallocate(res)`))

	want := []AllocationSummary{
		{Variable: "cha", AllocateLines: []int{2}},
		{Variable: "hru", AllocateLines: []int{1}, DeallocateLines: []int{4}},
		{Variable: "res", AllocateLines: []int{2}, DeallocateLines: []int{5}},
	}
	if !reflect.DeepEqual(summaries, want) {
		t.Errorf("summaries = %+v, want %+v", summaries, want)
	}
}

func TestTrackAllocationsNestedParens(t *testing.T) {
	summaries := TrackAllocations(Lines(`allocate(grid(n, m), buf(len(x)))`))
	if len(summaries) != 2 {
		t.Fatalf("summaries = %+v, want grid and buf", summaries)
	}
	if summaries[0].Variable != "buf" || summaries[1].Variable != "grid" {
		t.Errorf("variables = %q, %q", summaries[0].Variable, summaries[1].Variable)
	}
}

func TestTrackAllocationsSkipsStatOption(t *testing.T) {
	summaries := TrackAllocations(Lines(`allocate(hru(10), stat=ierr)`))
	if len(summaries) != 1 || summaries[0].Variable != "hru" {
		t.Errorf("summaries = %+v, want only hru", summaries)
	}
}

func TestTrackAllocationsEmpty(t *testing.T) {
	if got := TrackAllocations(Lines("x = 1\ny = 2")); len(got) != 0 {
		t.Errorf("summaries = %+v, want none", got)
	}
}
