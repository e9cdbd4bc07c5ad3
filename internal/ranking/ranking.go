package ranking

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fadilmartias/resume-screener/internal/model"
	"github.com/fadilmartias/resume-screener/internal/workflow"
)

type SortKey string

const (
	SortByScore     SortKey = "score"
	SortByAppliedAt SortKey = "applied_at"
)

var ErrInvalidSort = errors.New("invalid sort key")

// ParseSort accepts score (the default), applied_at and its alias date.
func ParseSort(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(SortByScore):
		return SortByScore, nil
	case string(SortByAppliedAt), "date":
		return SortByAppliedAt, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSort, s)
}

// Query selects and orders one job's applications.
type Query struct {
	SortBy SortKey
	Status *workflow.Status
}

// Rank returns a new slice with the applications that pass the status filter,
// ordered by the sort key. Score order is descending with ties going to the
// earlier application; applied_at order is newest first. The input is not
// modified.
func Rank(apps []model.Application, q Query) []model.Application {
	out := make([]model.Application, 0, len(apps))
	for _, a := range apps {
		if q.Status != nil && a.Status != *q.Status {
			continue
		}
		out = append(out, a)
	}

	switch q.SortBy {
	case SortByAppliedAt:
		sort.SliceStable(out, func(i, j int) bool {
			if !out[i].AppliedAt.Equal(out[j].AppliedAt) {
				return out[i].AppliedAt.After(out[j].AppliedAt)
			}
			return out[i].ID.String() < out[j].ID.String()
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].AIScore != out[j].AIScore {
				return out[i].AIScore > out[j].AIScore
			}
			if !out[i].AppliedAt.Equal(out[j].AppliedAt) {
				return out[i].AppliedAt.Before(out[j].AppliedAt)
			}
			return out[i].ID.String() < out[j].ID.String()
		})
	}
	return out
}
