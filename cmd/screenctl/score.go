package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fadilmartias/resume-screener/internal/config"
	"github.com/fadilmartias/resume-screener/internal/extractor"
	"github.com/fadilmartias/resume-screener/internal/model"
	"github.com/fadilmartias/resume-screener/internal/scoring"
	"github.com/fadilmartias/resume-screener/internal/service"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type scoreOptions struct {
	title         string
	skills        []string
	minExperience int
	years         int
	enrich        bool
	timeout       time.Duration
}

type scoreOutput struct {
	AIScore        int                  `json:"ai_score"`
	ScoreBreakdown model.ScoreBreakdown `json:"score_breakdown"`
	Explanation    string               `json:"explanation"`
	ResumeParsed   model.ParsedResume   `json:"resume_parsed"`
	Weights        weights              `json:"weights"`
}

type weights struct {
	Skills     int `json:"skills"`
	Experience int `json:"experience"`
}

func newScoreCmd(root *rootOptions) *cobra.Command {
	opts := &scoreOptions{}
	cmd := &cobra.Command{
		Use:   "score <file>",
		Short: "Score a resume against a skill list and minimum experience",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.minExperience < 0 {
				return fmt.Errorf("--min-experience must not be negative")
			}
			log, err := root.newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			data, mimeType, err := readResume(args[0], "")
			if err != nil {
				return err
			}
			parsed, err := extractor.New(extractor.WithLogger(log)).Extract(cmd.Context(), data, mimeType)
			if err != nil {
				return err
			}

			forScoring := parsed
			if cmd.Flags().Changed("years") {
				forScoring.YearsOfExperience = &opts.years
			}

			engine, err := newEngine(cmd.Context(), opts, log)
			if err != nil {
				return err
			}
			job := &model.Job{ID: uuid.New(), Title: opts.title, Skills: opts.skills, MinExperience: opts.minExperience}
			res := engine.Score(cmd.Context(), job, job.Rubric(), forScoring)
			skillsW, expW := engine.Policy().Weights()

			return printJSON(cmd.OutOrStdout(), scoreOutput{
				AIScore:        res.Score,
				ScoreBreakdown: res.Breakdown,
				Explanation:    res.Explanation,
				ResumeParsed:   parsed,
				Weights:        weights{Skills: skillsW, Experience: expW},
			})
		},
	}
	cmd.Flags().StringVar(&opts.title, "title", "", "job title given to the narrative generator")
	cmd.Flags().StringSliceVarP(&opts.skills, "skills", "s", nil, "required skills, comma separated")
	cmd.Flags().IntVarP(&opts.minExperience, "min-experience", "m", 0, "minimum years of experience")
	cmd.Flags().IntVar(&opts.years, "years", 0, "declared years of experience, overrides the parsed value")
	cmd.Flags().BoolVar(&opts.enrich, "enrich", false, "use Gemini/OpenRouter from the environment for the narrative")
	cmd.Flags().DurationVar(&opts.timeout, "enrich-timeout", 15*time.Second, "timeout for the enriched narrative")
	_ = cmd.MarkFlagRequired("skills")
	return cmd
}

func newEngine(ctx context.Context, opts *scoreOptions, log *zap.Logger) (*scoring.Engine, error) {
	var gens []scoring.NarrativeGenerator
	if opts.enrich {
		gemini, err := service.NewGeminiNarrator(ctx, config.LoadGeminiConfig(), log)
		if err != nil {
			return nil, err
		}
		gens = append(gens, gemini, service.NewOpenRouterNarrator(config.LoadOpenRouterConfig(), log))
	}
	return scoring.NewEngine(scoring.DefaultPolicy(), scoring.NewNarrator(gens, opts.timeout, log), log), nil
}
