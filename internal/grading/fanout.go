package grading

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/classhub-backend/internal/llm"
	"github.com/stemsi/classhub-backend/internal/model"
)

// gradeEntities is Phase 2 + Phase 3: bounded-concurrency fan-out of
// GradingRunsPerEntity independent vision calls per entity, staggered by
// GradingRunStagger, followed immediately by that entity's per-question
// consensus once all its runs land.
func (p *Pipeline) gradeEntities(ctx context.Context, assessmentID string, cfg model.AssessmentConfig, entities []entity, log zerolog.Logger) error {
	var wg sync.WaitGroup
	errs := make(chan error, len(entities))

	for _, e := range entities {
		e := e
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer p.sem.Release(1)
			defer wg.Done()
			if err := p.gradeOneEntity(ctx, assessmentID, cfg, e, log); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	// Per-entity failures are isolated, not fatal to the job (spec's
	// failure semantics) — log and continue rather than returning the
	// first one.
	for err := range errs {
		log.Error().Err(err).Msg("entity grading failed, continuing job")
	}
	return nil
}

func (p *Pipeline) gradeOneEntity(ctx context.Context, assessmentID string, cfg model.AssessmentConfig, e entity, log zerolog.Logger) error {
	prompt := visionGradePrompt(cfg)
	img, err := loadImage(e.File)
	if err != nil {
		log.Warn().Err(err).Str("entity", e.id()).Msg("cannot read answer sheet for grading")
		return err
	}

	type run struct {
		index    int
		response graderResponse
		rawErr   error
	}
	runs := make([]run, p.cfg.GradingRunsPerEntity)

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.GradingRunsPerEntity; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i > 0 {
				time.Sleep(time.Duration(i) * p.cfg.GradingRunStagger)
			}
			var resp graderResponse
			callErr := p.llm.CompleteVisionJSON(ctx, prompt, []llm.Image{img}, &resp)
			runs[i] = run{index: i, response: resp, rawErr: callErr}
		}()
	}
	wg.Wait()

	for _, r := range runs {
		p.persistRun(ctx, assessmentID, e, r.index, r.response, r.rawErr)
	}

	for _, q := range cfg.Questions() {
		grades := make([]gradeSample, 0, p.cfg.GradingRunsPerEntity)
		for _, r := range runs {
			if r.rawErr != nil {
				continue
			}
			for _, rr := range r.response.Results {
				if rr.QuestionID == q.ID && rr.Grade != nil {
					grades = append(grades, gradeSample{value: *rr.Grade, feedback: rr.Feedback, order: r.index})
				}
			}
		}
		if err := p.applyConsensus(ctx, assessmentID, q.ID, e, grades); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) persistRun(ctx context.Context, assessmentID string, e entity, runIndex int, resp graderResponse, callErr error) {
	raw, _ := json.Marshal(resp)
	if callErr != nil {
		raw, _ = json.Marshal(map[string]string{"error": callErr.Error()})
	}
	for _, q := range resp.Results {
		grade := q.Grade
		feedback := q.Feedback
		run := model.AIModelRun{
			AssessmentID: assessmentID,
			IdentityKind: e.Kind,
			StudentID:    e.StudentID,
			OutsiderID:   e.OutsiderID,
			QuestionID:   q.QuestionID,
			RunIndex:     runIndex,
			RawJSON:      raw,
			Grade:        grade,
			Comment:      &feedback,
		}
		if err := p.store.SaveAIModelRun(ctx, run); err != nil {
			p.log.Error().Err(err).Str("entity", e.id()).Msg("failed to persist AI model run")
			continue
		}
		if runIndex == 0 && q.ExtractedAnswer != "" {
			p.setExtractedAnswer(ctx, assessmentID, q.QuestionID, e, q.ExtractedAnswer)
		}
	}
	if callErr != nil {
		// Record a sentinel run even when the call produced no per-question
		// rows at all, so Phase 3 sees a failed attempt rather than silence.
		run := model.AIModelRun{
			AssessmentID: assessmentID,
			IdentityKind: e.Kind,
			StudentID:    e.StudentID,
			OutsiderID:   e.OutsiderID,
			RunIndex:     runIndex,
			RawJSON:      raw,
		}
		_ = p.store.SaveAIModelRun(ctx, run)
	}
}

func (p *Pipeline) setExtractedAnswer(ctx context.Context, assessmentID, questionID string, e entity, extracted string) {
	results, err := p.store.ListResultsByQuestion(ctx, assessmentID, questionID)
	if err != nil {
		return
	}
	for _, r := range results {
		if sameEntity(r, e) {
			_ = p.store.SetResultExtractedAnswer(ctx, r.ID, extracted)
			return
		}
	}
}

func sameEntity(r model.Result, e entity) bool {
	if r.IdentityKind != e.Kind {
		return false
	}
	if e.Kind == model.ResultIdentityStudent {
		return r.StudentID != nil && e.StudentID != nil && *r.StudentID == *e.StudentID
	}
	return r.OutsiderID != nil && e.OutsiderID != nil && *r.OutsiderID == *e.OutsiderID
}

// gradeSample is one run's valid grade for one question, kept in arrival
// order so clustering ties break by insertion order per Open Question #5.
type gradeSample struct {
	value    float64
	feedback string
	order    int
}

// applyConsensus is Phase 3: cluster the entity's per-run grades for one
// question and persist the outcome against whichever Result row matches
// the entity.
func (p *Pipeline) applyConsensus(ctx context.Context, assessmentID, questionID string, e entity, samples []gradeSample) error {
	mean, feedback, ok := consensusGrade(samples, p.cfg.ConsensusTolerance)

	results, err := p.store.ListResultsByQuestion(ctx, assessmentID, questionID)
	if err != nil {
		return err
	}
	var target *model.Result
	for i := range results {
		if sameEntity(results[i], e) {
			target = &results[i]
			break
		}
	}
	if target == nil {
		return nil
	}

	if !ok {
		status := model.ResultPendingReview
		return p.store.FinaliseResult(ctx, target.ID, status, nil, nil, nil)
	}

	finalisedBy := model.FinalisedByAI
	return p.store.FinaliseResult(ctx, target.ID, model.ResultAIGraded, &mean, &feedback, &finalisedBy)
}

// consensusGrade ports finalize_question: a single-pass greedy
// clustering within tolerance, first cluster to reach >= 2 members wins,
// using that cluster's mean and its first-inserted member's feedback
// (ties broken by arrival order per Open Question #5). A sample joins a
// cluster if it is within tolerance of *any* member already in it, not
// just the cluster's first member, matching
// `any(abs(g1 - g_existing) <= tolerance for g_existing, _ in group)`.
// No cluster reaching 2 members returns ok=false, meaning the question
// needs teacher review.
func consensusGrade(samples []gradeSample, tolerance float64) (mean float64, feedback string, ok bool) {
	sorted := make([]gradeSample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].order < sorted[j].order })

	type cluster struct {
		members []gradeSample
	}
	var clusters []cluster
	for _, s := range sorted {
		placed := false
		for i := range clusters {
			withinAny := false
			for _, existing := range clusters[i].members {
				if math.Abs(existing.value-s.value) <= tolerance {
					withinAny = true
					break
				}
			}
			if withinAny {
				clusters[i].members = append(clusters[i].members, s)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, cluster{members: []gradeSample{s}})
		}
	}

	for _, c := range clusters {
		if len(c.members) >= 2 {
			sum := 0.0
			for _, m := range c.members {
				sum += m.value
			}
			return sum / float64(len(c.members)), c.members[0].feedback, true
		}
	}
	return 0, "", false
}
