package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fadilmartias/resume-screener/internal/model"
	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet = "Summary"
	RankingSheet = "Ranking"
)

var rankingHeaders = []string{
	"Rank", "Candidate", "Email", "Phone", "Score", "Skills", "Experience",
	"Status", "Applied At", "Matched Skills", "Missing Skills", "AI Powered", "Explanation",
}

var rankingWidths = []float64{7, 26, 30, 16, 8, 8, 11, 11, 20, 36, 36, 11, 70}

// WriteRanking renders already ranked applications as an XLSX workbook. The
// row order is kept as given.
func WriteRanking(w io.Writer, job *model.Job, apps []model.Application, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	if _, err := f.NewSheet(RankingSheet); err != nil {
		return fmt.Errorf("create ranking sheet: %w", err)
	}

	if err := writeSummary(f, job, apps, generatedAt); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeRanking(f, apps); err != nil {
		return fmt.Errorf("failed to create ranking sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, job *model.Job, apps []model.Application, generatedAt time.Time) error {
	if err := f.SetColWidth(SummarySheet, "A", "A", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "B", "B", 50); err != nil {
		return err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	rows := [][2]any{
		{"Job Title", job.Title},
		{"Required Skills", strings.Join(job.Skills, ", ")},
		{"Minimum Experience", job.MinExperience},
		{"Generated", generatedAt.UTC().Format(time.RFC3339)},
		{"Applications", len(apps)},
	}
	if len(apps) > 0 {
		total, top := 0, apps[0].AIScore
		for _, a := range apps {
			total += a.AIScore
			if a.AIScore > top {
				top = a.AIScore
			}
		}
		rows = append(rows,
			[2]any{"Average Score", fmt.Sprintf("%.1f", float64(total)/float64(len(apps)))},
			[2]any{"Highest Score", top},
		)
	}

	for i, r := range rows {
		row := i + 1
		if err := f.SetCellValue(SummarySheet, fmt.Sprintf("A%d", row), r[0]); err != nil {
			return err
		}
		if err := f.SetCellValue(SummarySheet, fmt.Sprintf("B%d", row), r[1]); err != nil {
			return err
		}
		if err := f.SetCellStyle(SummarySheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle); err != nil {
			return err
		}
	}
	return nil
}

func writeRanking(f *excelize.File, apps []model.Application) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	for i, h := range rankingHeaders {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(RankingSheet, col, col, rankingWidths[i]); err != nil {
			return err
		}
		cell := col + "1"
		if err := f.SetCellValue(RankingSheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(RankingSheet, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	for i := range apps {
		a := &apps[i]
		b := a.Breakdown()
		phone := ""
		if a.Candidate.Phone != nil {
			phone = *a.Candidate.Phone
		}
		values := []any{
			i + 1,
			a.Candidate.FullName,
			a.Candidate.Email,
			phone,
			a.AIScore,
			b.Skills,
			b.Experience,
			string(a.Status),
			a.AppliedAt.UTC().Format(time.RFC3339),
			strings.Join(b.MatchedSkills, ", "),
			strings.Join(b.MissingSkills, ", "),
			b.AIPowered,
			a.Explanation,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(RankingSheet, cell, &values); err != nil {
			return err
		}
	}

	if len(apps) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(rankingHeaders), len(apps)+1)
		if err := f.AutoFilter(RankingSheet, "A1:"+last, nil); err != nil {
			return err
		}
	}
	return f.SetPanes(RankingSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
