package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/euonia/pkg/model"
	"github.com/m-mizutani/euonia/pkg/usecase/chat"
	"github.com/m-mizutani/euonia/pkg/utils/logging"
)

type turnRequest struct {
	Message       string `json:"message"`
	ChatID        string `json:"chatId"`
	SystemMessage string `json:"systemMessage,omitempty"`
	Model         string `json:"model,omitempty"`
}

type turnResponse struct {
	ResponseText string        `json:"responseText"`
	Goals        []*model.Goal `json:"goals"`
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	uid, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req turnRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.ChatID) == "" {
		writeError(w, r, http.StatusBadRequest, "chatId is required")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, r, http.StatusBadRequest, "message is required")
		return
	}

	ctx := logging.WithAttrs(r.Context(), "uid", uid)
	out, err := s.chat.Turn(ctx, chat.TurnInput{
		UserID:        uid,
		ChatID:        model.ChatID(req.ChatID),
		Message:       req.Message,
		SystemMessage: req.SystemMessage,
		Model:         req.Model,
	})
	if err != nil {
		if chat.IsUserFacing(err) {
			logging.From(ctx).Info("turn rejected", "error", err)
			writeJSON(w, r, http.StatusOK, turnResponse{
				ResponseText: chat.UserFacingMessage(err),
				Goals:        []*model.Goal{},
			})
			return
		}
		logging.From(ctx).Error("turn failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, msgInternalError)
		return
	}

	goals := out.Goals
	if goals == nil {
		goals = []*model.Goal{}
	}
	writeJSON(w, r, http.StatusOK, turnResponse{
		ResponseText: out.ResponseText,
		Goals:        goals,
	})
}

type createChatRequest struct {
	Name string `json:"name"`
}

type createChatResponse struct {
	ChatID    model.ChatID `json:"chatId"`
	Name      string       `json:"name"`
	CreatedAt time.Time    `json:"createdAt"`
}

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	uid, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createChatRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	c, err := s.chat.CreateChat(r.Context(), uid, req.Name)
	if err != nil {
		logging.From(r.Context()).Error("failed to create chat", "error", err)
		writeError(w, r, http.StatusInternalServerError, msgInternalError)
		return
	}

	writeJSON(w, r, http.StatusCreated, createChatResponse{
		ChatID:    c.ID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
	})
}

type chatResponse struct {
	ChatID       model.ChatID     `json:"chatId"`
	Name         string           `json:"name"`
	CreatedAt    time.Time        `json:"createdAt"`
	Interactions []*model.Message `json:"interactions"`
}

// handleGetChat returns the transcript of a chat owned by the caller. A chat of
// another user is reported as absent.
func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	uid, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	c, err := s.chat.GetChat(r.Context(), uid, model.ChatID(r.PathValue("chatId")))
	if err != nil {
		if chat.IsUserFacing(err) {
			writeError(w, r, http.StatusNotFound, "chat not found")
			return
		}
		logging.From(r.Context()).Error("failed to get chat", "error", err)
		writeError(w, r, http.StatusInternalServerError, msgInternalError)
		return
	}

	interactions := c.Interactions
	if interactions == nil {
		interactions = []*model.Message{}
	}
	writeJSON(w, r, http.StatusOK, chatResponse{
		ChatID:       c.ID,
		Name:         c.Name,
		CreatedAt:    c.CreatedAt,
		Interactions: interactions,
	})
}

type goalsResponse struct {
	Goals []*model.Goal `json:"goals"`
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	uid, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	goals, err := s.goals.ListAll(r.Context(), uid)
	if err != nil {
		logging.From(r.Context()).Error("failed to list goals", "error", err)
		writeError(w, r, http.StatusInternalServerError, msgInternalError)
		return
	}

	writeJSON(w, r, http.StatusOK, goalsResponse{Goals: goals})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
