package quiz

import (
	"encoding/json"

	"github.com/stemsi/classhub-backend/internal/apperror"
	"github.com/stemsi/classhub-backend/internal/model"
)

func unmarshal(raw []byte, out any) error {
	if len(raw) == 0 {
		return apperror.Validation("EMPTY_PAYLOAD", "payload is empty")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperror.Validation("MALFORMED_PAYLOAD", "payload does not match expected shape: %v", err)
	}
	return nil
}

func errUnknownQuestionType(t model.QuestionType) error {
	return apperror.Validation("UNKNOWN_QUESTION_TYPE", "unrecognized question type %q", string(t))
}
