package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/engagement-ledger/ledger/internal/application/moderation"
	appQuery "github.com/engagement-ledger/ledger/internal/application/query"
	appSettings "github.com/engagement-ledger/ledger/internal/application/settings"
	"github.com/engagement-ledger/ledger/internal/domain/ledger"
)

type reportRequest struct {
	Filters []string `json:"filters"`
	SortBy  string   `json:"sort_by,omitempty"`
}

type cooldownRequest struct {
	Duration string `json:"duration"`
}

type statsPromptRequest struct {
	ChannelID ledger.ID `json:"channel_id"`
	MessageID ledger.ID `json:"message_id"`
}

// channelRequest carries the history the integration read from the channel,
// newest first. HistoryForbidden marks that reading stopped on a permission error.
type channelRequest struct {
	History          []moderation.Message `json:"history"`
	HistoryForbidden bool                 `json:"history_forbidden,omitempty"`
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.buildReport(w, r, appQuery.Request{Filters: q["filter"], SortBy: q.Get("sort")})
}

func (s *Server) createReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	s.buildReport(w, r, appQuery.Request{Filters: req.Filters, SortBy: req.SortBy})
}

func (s *Server) buildReport(w http.ResponseWriter, r *http.Request, req appQuery.Request) {
	report, err := s.querySvc.Build(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.settingsSvc.Config())
}

func (s *Server) addRole(w http.ResponseWriter, r *http.Request) {
	s.changeRole(w, r, true)
}

func (s *Server) removeRole(w http.ResponseWriter, r *http.Request) {
	s.changeRole(w, r, false)
}

func (s *Server) changeRole(w http.ResponseWriter, r *http.Request, add bool) {
	set, err := appSettings.ParseRoleSet(chi.URLParam(r, "set"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	roleID, err := parseIDParam(r, "roleId")
	if err != nil {
		respondServiceError(w, err)
		return
	}
	var changed bool
	if add {
		changed, err = s.settingsSvc.AddRole(r.Context(), set, roleID)
	} else {
		changed, err = s.settingsSvc.RemoveRole(r.Context(), set, roleID)
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"role_set": set,
		"role_id":  roleID,
		"changed":  changed,
	})
}

func (s *Server) setCooldown(w http.ResponseWriter, r *http.Request) {
	roleID, err := parseIDParam(r, "roleId")
	if err != nil {
		respondServiceError(w, err)
		return
	}
	var req cooldownRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	d, err := s.settingsSvc.SetCooldown(r.Context(), roleID, req.Duration)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"role_id":  roleID,
		"seconds":  int64(d.Seconds()),
		"duration": d.String(),
	})
}

func (s *Server) clearCooldown(w http.ResponseWriter, r *http.Request) {
	roleID, err := parseIDParam(r, "roleId")
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"role_id": roleID,
		"changed": s.settingsSvc.ClearCooldown(r.Context(), roleID),
	})
}

func (s *Server) setStatsPrompt(w http.ResponseWriter, r *http.Request) {
	var req statsPromptRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	s.settingsSvc.SetStatsPrompt(r.Context(), req.ChannelID, req.MessageID)
	respondJSON(w, http.StatusOK, req)
}

func (s *Server) registerLinkChannel(w http.ResponseWriter, r *http.Request) {
	s.registerChannel(w, r, s.settingsSvc.RegisterLinkChannel)
}

func (s *Server) registerMediaChannel(w http.ResponseWriter, r *http.Request) {
	s.registerChannel(w, r, s.settingsSvc.RegisterMediaChannel)
}

type registerFunc func(ctx context.Context, channelID ledger.ID, history moderation.HistorySource) moderation.ScanResult

func (s *Server) registerChannel(w http.ResponseWriter, r *http.Request, register registerFunc) {
	channelID, err := parseIDParam(r, "channelId")
	if err != nil {
		respondServiceError(w, err)
		return
	}
	var req channelRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	history := moderation.StaticHistory{Messages: req.History}
	if req.HistoryForbidden {
		history.Err = moderation.ErrHistoryForbidden
	}
	for i := range history.Messages {
		history.Messages[i].ChannelID = channelID
	}
	respondJSON(w, http.StatusOK, register(r.Context(), channelID, history))
}

func (s *Server) unregisterChannel(w http.ResponseWriter, r *http.Request) {
	channelID, err := parseIDParam(r, "channelId")
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"channel_id": channelID,
		"changed":    s.settingsSvc.UnregisterChannel(r.Context(), channelID),
	})
}
