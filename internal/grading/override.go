package grading

import (
	"context"

	"github.com/stemsi/classhub-backend/internal/apperror"
	"github.com/stemsi/classhub-backend/internal/identity"
	"github.com/stemsi/classhub-backend/internal/model"
)

// ApplyTeacherEdit is Phase 5: a teacher's manual override of one
// question's grade for one entity. If it clears the last PENDING_REVIEW
// result in the job, the job itself completes.
func (p *Pipeline) ApplyTeacherEdit(ctx context.Context, id identity.Context, assessmentID, resultID string, grade float64, feedback string, maxScore float64) error {
	if grade < 0 || grade > maxScore {
		return apperror.Validation("GRADE_OUT_OF_RANGE", "grade %.2f must be between 0 and %.2f", grade, maxScore)
	}

	finalisedBy := model.FinalisedByTeacher
	if err := p.store.FinaliseResult(ctx, resultID, model.ResultTeacherGraded, &grade, &feedback, &finalisedBy); err != nil {
		return err
	}

	pending, err := p.store.CountPendingReview(ctx, assessmentID)
	if err != nil {
		return err
	}
	if pending == 0 {
		return p.store.SetAssessmentStatus(ctx, assessmentID, model.AssessmentCompleted)
	}
	return nil
}
