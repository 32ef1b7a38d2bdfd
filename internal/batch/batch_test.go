package batch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fortdoc/fortflow/pkg/cache"
	"github.com/fortdoc/fortflow/pkg/flow"
	"github.com/fortdoc/fortflow/pkg/fortran"
)

func testFile(path string, count int) *fortran.File {
	f := &fortran.File{Path: path}
	for i := 0; i < count; i++ {
		source := fmt.Sprintf("subroutine p%d(x)\n  x = %d\n  if (x > 0) then\n    x = 0\n  end if\nend subroutine\n", i, i)
		f.Procedures = append(f.Procedures, fortran.Parse(source)...)
	}
	return f
}

func TestRunAnalyzesEveryProcedure(t *testing.T) {
	files := []*fortran.File{testFile("a.f90", 3), testFile("b.f90", 2)}

	report := Run(context.Background(), files, Options{Workers: 2})
	if len(report.Items) != 5 {
		t.Fatalf("analyzed %d procedures, want 5", len(report.Items))
	}
	for _, item := range report.Items {
		if item.Result.Graph == nil {
			t.Errorf("procedure %s has no graph", item.Result.Procedure)
		}
	}
	if len(report.Unavailable) != 0 {
		t.Errorf("unexpected unavailable procedures: %v", report.Unavailable)
	}
}

func TestRunDeterministicOrder(t *testing.T) {
	files := []*fortran.File{testFile("b.f90", 4), testFile("a.f90", 4)}

	first := Run(context.Background(), files, Options{Workers: 4})
	for i := 0; i < 5; i++ {
		again := Run(context.Background(), files, Options{Workers: 4})
		for j := range first.Items {
			if again.Items[j].Path != first.Items[j].Path ||
				again.Items[j].Result.Procedure != first.Items[j].Result.Procedure {
				t.Fatalf("run %d: item %d differs: %s/%s vs %s/%s", i, j,
					again.Items[j].Path, again.Items[j].Result.Procedure,
					first.Items[j].Path, first.Items[j].Result.Procedure)
			}
		}
	}
	if first.Items[0].Path != "a.f90" {
		t.Errorf("items not sorted by path: first is %s", first.Items[0].Path)
	}
}

func TestRunUsesCache(t *testing.T) {
	c := cache.New(cache.Options{})
	files := []*fortran.File{testFile("a.f90", 2)}
	opts := Options{Workers: 2, Cache: c}

	Run(context.Background(), files, opts)
	if c.Len() != 2 {
		t.Fatalf("cache has %d entries after first run, want 2", c.Len())
	}

	Run(context.Background(), files, opts)
	stats := c.Stats()
	if stats.Hits != 2 {
		t.Errorf("cache hits = %d, want 2", stats.Hits)
	}
}

func TestRunReportsUnavailableProcedures(t *testing.T) {
	files := []*fortran.File{testFile("a.f90", 2)}

	report := Run(context.Background(), files, Options{
		Workers: 2,
		Flow:    flow.Options{Budget: time.Nanosecond},
	})
	if len(report.Items) != 2 {
		t.Fatalf("analyzed %d procedures, want 2", len(report.Items))
	}
	if len(report.Unavailable) != 2 {
		t.Fatalf("unavailable = %v, want both procedures over budget", report.Unavailable)
	}
	for _, item := range report.Items {
		if !item.Result.Unavailable {
			t.Errorf("procedure %s not flagged unavailable", item.Result.Procedure)
		}
		if item.Result.Graph != nil {
			t.Errorf("procedure %s leaked a partial graph", item.Result.Procedure)
		}
		if item.Result.Outline == nil {
			t.Errorf("procedure %s lost its outline to the budget", item.Result.Procedure)
		}
	}
}

func TestRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := Run(ctx, []*fortran.File{testFile("a.f90", 10)}, Options{Workers: 2})
	if len(report.Items) != 0 {
		t.Errorf("canceled run produced %d items, want 0", len(report.Items))
	}
}

func TestRunDefaultWorkerCount(t *testing.T) {
	report := Run(context.Background(), []*fortran.File{testFile("a.f90", 1)}, Options{})
	if len(report.Items) != 1 {
		t.Fatalf("analyzed %d procedures, want 1", len(report.Items))
	}
}
