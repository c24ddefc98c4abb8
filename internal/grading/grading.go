// Package grading implements C7, the GradingPipeline that turns a batch of
// uploaded answer sheets into per-question consensus grades. Grounded on
// assessment_helpers/grading_pipeline.py's five-phase shape
// (match -> fan-out -> consensus -> status progression -> teacher
// override), re-expressed as a Go worker driven off the grading job
// queue rather than an asyncio task.
package grading

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/rs/zerolog"

	"github.com/stemsi/classhub-backend/internal/apperror"
	"github.com/stemsi/classhub-backend/internal/config"
	"github.com/stemsi/classhub-backend/internal/identity"
	"github.com/stemsi/classhub-backend/internal/llm"
	"github.com/stemsi/classhub-backend/internal/model"
	"github.com/stemsi/classhub-backend/internal/store"
)

// Pipeline is C7. One instance is shared across every grading-job worker
// goroutine; the entity-level semaphore is what actually bounds
// concurrency, not instance count.
type Pipeline struct {
	store store.Store
	llm   llm.Client
	cfg   *config.Config
	sem   *semaphore.Weighted
	log   zerolog.Logger
}

func New(st store.Store, llmClient llm.Client, cfg *config.Config, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		store: st,
		llm:   llmClient,
		cfg:   cfg,
		sem:   semaphore.NewWeighted(cfg.GradingConcurrency),
		log:   log.With().Str("component", "grading").Logger(),
	}
}

// entity is the unit Phase 2 grades: one answer-sheet file bound to
// exactly one identity (rostered student or outsider).
type entity struct {
	Kind       model.ResultIdentityKind
	StudentID  *string
	OutsiderID *string
	Name       string
	File       model.AnswerSheetFile
}

func (e entity) id() string {
	if e.StudentID != nil {
		return "student:" + *e.StudentID
	}
	return "outsider:" + *e.OutsiderID
}

// ProcessJob is the top-level worker spec.md names process_job. Any
// unhandled failure, panics included, marks the job FAILED and comes back
// as the returned error, which the worker loop logs before moving on — a
// single bad job must never take down the worker loop.
func (p *Pipeline) ProcessJob(ctx context.Context, tenantID, assessmentID string) (err error) {
	id := identity.Context{TenantID: tenantID}
	log := p.log.With().Str("assessment_id", assessmentID).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("grading job panicked, marking failed")
			_ = p.store.SetAssessmentFailed(ctx, assessmentID)
			err = fmt.Errorf("grading job panicked: %v", r)
		} else if err != nil {
			log.Error().Err(err).Msg("grading job failed, marking failed")
			_ = p.store.SetAssessmentFailed(ctx, assessmentID)
		}
	}()

	assessment, err := p.store.GetAssessment(ctx, id, assessmentID)
	if err != nil {
		return err
	}
	cfg, err := assessment.DecodeConfig()
	if err != nil {
		return apperror.ParseErr("ASSESSMENT_CONFIG_PARSE", err)
	}

	if err := p.store.SetAssessmentStatus(ctx, assessmentID, model.AssessmentProcessing); err != nil {
		return err
	}

	entities, err := p.matchEntities(ctx, id, assessment, cfg)
	if err != nil {
		return err
	}
	log.Info().Int("entities", len(entities)).Msg("phase 1 complete")

	if err := p.gradeEntities(ctx, assessmentID, cfg, entities, log); err != nil {
		return err
	}
	log.Info().Msg("phase 2/3 complete")

	return p.progressStatus(ctx, assessmentID, cfg, log)
}

// matchEntities is Phase 1. Manual-upload jobs skip extraction entirely —
// their Results were already created entity-scoped at job-creation time,
// so this just regroups the existing rows into entities for Phase 2.
func (p *Pipeline) matchEntities(ctx context.Context, id identity.Context, assessment *model.Assessment, cfg model.AssessmentConfig) ([]entity, error) {
	if cfg.IsManualUpload {
		return p.entitiesFromExistingResults(ctx, assessment.ID)
	}

	files, err := assessment.DecodeAnswerSheets()
	if err != nil {
		return nil, apperror.ParseErr("ANSWER_SHEETS_PARSE", err)
	}
	roster, err := p.store.GetStudentsByClass(ctx, id, cfg.ClassID)
	if err != nil {
		return nil, err
	}
	questions := cfg.Questions()

	entities := make([]entity, 0, len(files))
	for _, f := range files {
		img, err := loadImage(f)
		if err != nil {
			p.log.Warn().Err(err).Str("path", f.Path).Msg("skipping unreadable answer sheet")
			continue
		}

		var extracted struct {
			StudentName string `json:"student_name"`
		}
		if err := p.llm.CompleteVisionJSON(ctx, nameExtractionPrompt, []llm.Image{img}, &extracted); err != nil {
			p.log.Warn().Err(err).Str("path", f.Path).Msg("name extraction failed")
		}

		e := entity{Name: extracted.StudentName, File: f}
		if student := matchRoster(roster, extracted.StudentName); student != nil {
			e.Kind = model.ResultIdentityStudent
			e.StudentID = &student.ID
			e.Name = student.Name
		} else {
			name := extracted.StudentName
			if strings.TrimSpace(name) == "" {
				name = model.UnknownStudentName
			}
			outsider, err := p.findOrCreateOutsider(ctx, assessment.ID, name)
			if err != nil {
				return nil, err
			}
			e.Kind = model.ResultIdentityOutsider
			e.OutsiderID = &outsider.ID
			e.Name = outsider.Name
		}

		for _, q := range questions {
			if _, err := p.store.CreateResultsForEntity(ctx, assessment.ID, q.ID, e.Kind, e.StudentID, e.OutsiderID, f); err != nil {
				return nil, err
			}
		}
		entities = append(entities, e)
	}
	if err := p.store.ClearPendingAnswerSheets(ctx, assessment.ID); err != nil {
		return nil, err
	}
	return entities, nil
}

// findOrCreateOutsider implements the append-merge Open Question decision:
// a repeat name within the same job reuses the existing outsider row
// instead of erroring or duplicating it.
func (p *Pipeline) findOrCreateOutsider(ctx context.Context, assessmentID, name string) (*model.OutsiderStudent, error) {
	if existing, err := p.store.FindOutsiderByName(ctx, assessmentID, name); err == nil && existing != nil {
		return existing, nil
	}
	return p.store.CreateOutsiderStudent(ctx, name, assessmentID)
}

func (p *Pipeline) entitiesFromExistingResults(ctx context.Context, assessmentID string) ([]entity, error) {
	results, err := p.store.ListResultsByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]entity)
	order := make([]string, 0)
	for _, r := range results {
		e := entity{
			Kind:       r.IdentityKind,
			StudentID:  r.StudentID,
			OutsiderID: r.OutsiderID,
			File:       model.AnswerSheetFile{Path: r.AnswerSheetPath, ContentType: r.ContentType},
		}
		key := e.id()
		if _, ok := seen[key]; !ok {
			seen[key] = e
			order = append(order, key)
		}
	}
	entities := make([]entity, 0, len(order))
	for _, k := range order {
		entities = append(entities, seen[k])
	}
	return entities, nil
}

func matchRoster(roster []model.Student, extractedName string) *model.Student {
	name := strings.ToLower(strings.TrimSpace(extractedName))
	if name == "" {
		return nil
	}
	for i := range roster {
		candidate := strings.ToLower(roster[i].Name)
		if strings.Contains(candidate, name) || strings.Contains(name, candidate) {
			return &roster[i]
		}
	}
	return nil
}

func loadImage(f model.AnswerSheetFile) (llm.Image, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return llm.Image{}, err
	}
	contentType := f.ContentType
	if contentType == "" {
		contentType = contentTypeFromExt(f.Path)
	}
	return llm.Image{Base64: base64.StdEncoding.EncodeToString(data), ContentType: contentType}, nil
}

func contentTypeFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	default:
		return "image/jpeg"
	}
}

const nameExtractionPrompt = "Identify the student's name written on this answer sheet. Respond as JSON: {\"student_name\": string}. If no name is legible, return an empty string."

// visionGradePrompt builds Phase 2's per-entity prompt: every question
// with its rubric/max-score and answer-key context.
func visionGradePrompt(cfg model.AssessmentConfig) string {
	var b strings.Builder
	b.WriteString("Grade this answer sheet against the following questions. Respond as JSON: {\"results\":[{\"question_id\":string,\"extracted_answer\":string,\"grade\":number,\"feedback\":string}]}.\n\n")
	for _, q := range cfg.Questions() {
		fmt.Fprintf(&b, "Question %s: %s\n", q.ID, q.Text)
		if q.Rubric != "" {
			fmt.Fprintf(&b, "Rubric: %s\n", q.Rubric)
		}
		if q.MaxScore != nil {
			fmt.Fprintf(&b, "Max score: %.2f\n", *q.MaxScore)
		}
		if len(q.Answer) > 0 {
			fmt.Fprintf(&b, "Answer key: %s\n", string(q.Answer))
		} else {
			b.WriteString("No answer key was provided; grade by general knowledge.\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// graderResult is one question's outcome in a single vision-JSON run.
type graderResult struct {
	QuestionID       string   `json:"question_id"`
	ExtractedAnswer  string   `json:"extracted_answer"`
	Grade            *float64 `json:"grade"`
	Feedback         string   `json:"feedback"`
}

type graderResponse struct {
	Results []graderResult `json:"results"`
}
