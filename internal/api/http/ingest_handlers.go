package httpapi

import (
	"net/http"

	appIngest "github.com/engagement-ledger/ledger/internal/application/ingest"
	"github.com/engagement-ledger/ledger/internal/domain/ledger"
	"github.com/engagement-ledger/ledger/internal/domain/member"
)

type membersRequest struct {
	Members []member.Member `json:"members"`
	Roles   []member.Role   `json:"roles,omitempty"`
}

type statsRequest struct {
	ParticipantID ledger.ID   `json:"participant_id"`
	Roles         []ledger.ID `json:"roles"`
}

func (s *Server) ingestMessage(w http.ResponseWriter, r *http.Request) {
	var msg appIngest.Message
	if err := decodeBody(r, &msg); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.ingestSvc.HandleMessage(r.Context(), msg))
}

func (s *Server) ingestMembers(w http.ResponseWriter, r *http.Request) {
	var req membersRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.ingestSvc.SyncMembers(r.Context(), req.Members, req.Roles))
}

func (s *Server) requestStats(w http.ResponseWriter, r *http.Request) {
	var req statsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.cooldownSvc.RequestStats(r.Context(), req.ParticipantID, req.Roles))
}
