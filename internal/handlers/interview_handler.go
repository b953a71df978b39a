package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"talentgate/interview/internal/interview"
	"talentgate/interview/internal/middleware"
	"talentgate/interview/internal/models"
	"talentgate/interview/internal/utils"
)

type InterviewHandler struct {
	engine *interview.Engine
	logger *zap.Logger
}

func NewInterviewHandler(engine *interview.Engine, logger *zap.Logger) *InterviewHandler {
	return &InterviewHandler{
		engine: engine,
		logger: logger,
	}
}

// StartHandler creates a new interview session and returns its opening
// question.
func (h *InterviewHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.StartInterviewRequest](r)

	sessionID, question, err := h.engine.StartInterview(r.Context(), req.ResumeText, req.Topic, req.Language, req.ApplicationID)
	if err != nil {
		if errors.Is(err, interview.ErrOracleUnavailable) {
			utils.JSON(w, http.StatusServiceUnavailable, models.ErrorResponse{
				Code:    "oracle_unavailable",
				Message: "The interview service is temporarily unavailable, please retry",
			})
			return
		}
		h.logger.Error("Failed to start interview", zap.Error(err))
		utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Code:    "interview_error",
			Message: "Failed to start interview",
		})
		return
	}

	utils.JSON(w, http.StatusOK, models.StartInterviewResponse{
		SessionID: sessionID,
		Question:  question,
	})
}

// AnswerHandler scores one candidate answer and, unless the interview just
// finished, returns the next question.
func (h *InterviewHandler) AnswerHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.AnswerRequest](r)

	result, err := h.engine.SubmitAnswer(r.Context(), req.SessionID, req.Answer, req.Language)
	if err != nil {
		switch {
		case errors.Is(err, interview.ErrSessionNotFound):
			utils.JSON(w, http.StatusNotFound, models.ErrorResponse{
				Code:    "session_not_found",
				Message: "Session not found",
			})
		case errors.Is(err, interview.ErrInterviewFinished):
			utils.JSON(w, http.StatusConflict, models.ErrorResponse{
				Code:    "interview_finished",
				Message: "This interview has already finished",
			})
		case errors.Is(err, interview.ErrOracleUnavailable):
			utils.JSON(w, http.StatusServiceUnavailable, models.ErrorResponse{
				Code:    "oracle_unavailable",
				Message: "The interview service is temporarily unavailable, please retry",
			})
		default:
			h.logger.Error("Failed to evaluate answer",
				zap.String("session_id", req.SessionID),
				zap.Error(err))
			utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{
				Code:    "interview_error",
				Message: "Failed to evaluate answer",
			})
		}
		return
	}

	utils.JSON(w, http.StatusOK, result)
}
