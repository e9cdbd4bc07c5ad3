package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/fadilmartias/resume-screener/internal/model"
	"github.com/fadilmartias/resume-screener/internal/workflow"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
)

func app(name string, score int, status workflow.Status) model.Application {
	return model.Application{
		ID:        uuid.New(),
		Candidate: model.Candidate{FullName: name, Email: name + "@example.com"},
		AIScore:   score,
		Status:    status,
		AppliedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		ScoreBreakdown: datatypes.NewJSONType(model.ScoreBreakdown{
			Skills:        50,
			Experience:    67,
			MatchedSkills: []string{"python"},
			MissingSkills: []string{"sql"},
		}),
		Explanation: "Skills 50/100.",
	}
}

func TestWriteRanking(t *testing.T) {
	job := &model.Job{Title: "Data Engineer", Skills: []string{"python", "sql"}, MinExperience: 3}
	apps := []model.Application{
		app("ana", 80, workflow.StatusInterview),
		app("budi", 55, workflow.StatusApplied),
	}

	var buf bytes.Buffer
	if err := WriteRanking(&buf, job, apps, time.Now()); err != nil {
		t.Fatalf("WriteRanking() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(RankingSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "Rank" || rows[0][4] != "Score" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][1] != "ana" || rows[1][4] != "80" || rows[1][7] != "interview" {
		t.Errorf("first row = %v", rows[1])
	}
	if rows[2][0] != "2" || rows[2][9] != "python" || rows[2][10] != "sql" {
		t.Errorf("second row = %v", rows[2])
	}

	title, err := f.GetCellValue(SummarySheet, "B1")
	if err != nil || title != "Data Engineer" {
		t.Errorf("summary title = %q, %v", title, err)
	}
	count, _ := f.GetCellValue(SummarySheet, "B5")
	if count != "2" {
		t.Errorf("summary applications = %q, want 2", count)
	}
}

func TestWriteRanking_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRanking(&buf, &model.Job{Title: "Empty"}, nil, time.Now()); err != nil {
		t.Fatalf("WriteRanking() error = %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows(RankingSheet)
	if len(rows) != 1 {
		t.Errorf("rows = %d, want header only", len(rows))
	}
}
