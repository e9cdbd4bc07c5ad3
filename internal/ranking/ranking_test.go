package ranking

import (
	"errors"
	"testing"
	"time"

	"github.com/fadilmartias/resume-screener/internal/model"
	"github.com/fadilmartias/resume-screener/internal/workflow"
	"github.com/google/uuid"
)

var base = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func app(name string, score int, offset time.Duration, status workflow.Status) model.Application {
	return model.Application{
		ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)),
		Candidate: model.Candidate{FullName: name},
		AIScore:   score,
		AppliedAt: base.Add(offset),
		Status:    status,
	}
}

func names(apps []model.Application) []string {
	out := make([]string, len(apps))
	for i, a := range apps {
		out[i] = a.Candidate.FullName
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func fixture() []model.Application {
	return []model.Application{
		app("late-high", 80, 3*time.Hour, workflow.StatusApplied),
		app("early-high", 80, time.Hour, workflow.StatusInterview),
		app("low", 40, 0, workflow.StatusApplied),
		app("top", 95, 2*time.Hour, workflow.StatusReject),
	}
}

func TestRank_ScoreDescendingTiesByAppliedAt(t *testing.T) {
	got := names(Rank(fixture(), Query{SortBy: SortByScore}))
	want := []string{"top", "early-high", "late-high", "low"}
	if !equal(got, want) {
		t.Errorf("Rank = %v, want %v", got, want)
	}
}

func TestRank_AppliedAtNewestFirst(t *testing.T) {
	got := names(Rank(fixture(), Query{SortBy: SortByAppliedAt}))
	want := []string{"late-high", "top", "early-high", "low"}
	if !equal(got, want) {
		t.Errorf("Rank = %v, want %v", got, want)
	}
}

func TestRank_StatusFilter(t *testing.T) {
	status := workflow.StatusApplied
	got := names(Rank(fixture(), Query{SortBy: SortByScore, Status: &status}))
	want := []string{"late-high", "low"}
	if !equal(got, want) {
		t.Errorf("Rank = %v, want %v", got, want)
	}
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	in := fixture()
	before := names(in)
	_ = Rank(in, Query{})
	if !equal(names(in), before) {
		t.Errorf("input reordered: %v", names(in))
	}
}

func TestRank_Deterministic(t *testing.T) {
	in := fixture()
	in = append(in, app("twin-a", 80, time.Hour, workflow.StatusApplied), app("twin-b", 80, time.Hour, workflow.StatusApplied))
	first := names(Rank(in, Query{}))
	for i := 0; i < 10; i++ {
		reversed := make([]model.Application, len(in))
		for j := range in {
			reversed[len(in)-1-j] = in[j]
		}
		if got := names(Rank(reversed, Query{})); !equal(got, first) {
			t.Fatalf("order depends on input order: %v vs %v", got, first)
		}
	}
}

func TestParseSort(t *testing.T) {
	tests := map[string]SortKey{
		"":           SortByScore,
		"score":      SortByScore,
		"applied_at": SortByAppliedAt,
		"DATE":       SortByAppliedAt,
	}
	for in, want := range tests {
		got, err := ParseSort(in)
		if err != nil || got != want {
			t.Errorf("ParseSort(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseSort("name"); !errors.Is(err, ErrInvalidSort) {
		t.Errorf("ParseSort(name) err = %v, want ErrInvalidSort", err)
	}
}
