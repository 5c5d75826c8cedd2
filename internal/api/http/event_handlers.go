package httpapi

import (
	"net/http"
	"strings"

	appParticipation "github.com/engagement-ledger/ledger/internal/application/participation"
	"github.com/engagement-ledger/ledger/internal/domain/ledger"
)

type participantsRequest struct {
	ParticipantIDs []string `json:"participant_ids"`
}

type fixRequest struct {
	From           string   `json:"from"`
	To             string   `json:"to"`
	ParticipantIDs []string `json:"participant_ids"`
}

type copyRequest struct {
	MemberIDs []ledger.ID `json:"member_ids"`
}

type batchFunc func(s *appParticipation.Service, r *http.Request, in appParticipation.BatchInput) (*appParticipation.BatchResult, error)

func (s *Server) joinEvent(w http.ResponseWriter, r *http.Request) {
	s.runBatch(w, r, func(svc *appParticipation.Service, r *http.Request, in appParticipation.BatchInput) (*appParticipation.BatchResult, error) {
		return svc.Join(r.Context(), in)
	})
}

func (s *Server) markWinners(w http.ResponseWriter, r *http.Request) {
	s.runBatch(w, r, func(svc *appParticipation.Service, r *http.Request, in appParticipation.BatchInput) (*appParticipation.BatchResult, error) {
		return svc.MarkWinner(r.Context(), in)
	})
}

func (s *Server) removeFromEvent(w http.ResponseWriter, r *http.Request) {
	s.runBatch(w, r, func(svc *appParticipation.Service, r *http.Request, in appParticipation.BatchInput) (*appParticipation.BatchResult, error) {
		return svc.Remove(r.Context(), in)
	})
}

func (s *Server) runBatch(w http.ResponseWriter, r *http.Request, fn batchFunc) {
	var req participantsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	in := appParticipation.BatchInput{
		ActorIsAdmin:   actorFromContext(r.Context()).IsAdmin,
		EventName:      eventParam(r),
		ParticipantIDs: req.ParticipantIDs,
	}
	res, err := fn(s.participationSvc, r, in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) fixEvent(w http.ResponseWriter, r *http.Request) {
	var req fixRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	from, err := ledger.ParseState(req.From)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	in := appParticipation.BatchInput{
		ActorIsAdmin:   actorFromContext(r.Context()).IsAdmin,
		EventName:      eventParam(r),
		ParticipantIDs: req.ParticipantIDs,
	}
	var res *appParticipation.BatchResult
	switch from {
	case ledger.StateWinner:
		res, err = s.participationSvc.FixWinnerTo(r.Context(), req.To, in)
	case ledger.StateJoined:
		res, err = s.participationSvc.FixJoinedTo(r.Context(), req.To, in)
	default:
		res, err = s.participationSvc.FixNotJoinedTo(r.Context(), req.To, in)
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) copyEvent(w http.ResponseWriter, r *http.Request) {
	var req copyRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	res, err := s.participationSvc.CopyFromMembers(r.Context(), actorFromContext(r.Context()).IsAdmin, eventParam(r), req.MemberIDs)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request) {
	event := eventParam(r)
	n, err := s.participationSvc.DeleteEvent(r.Context(), actorFromContext(r.Context()).IsAdmin, event)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"event":    strings.TrimSpace(event),
		"affected": n,
	})
}

func (s *Server) getParticipant(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "participantId")
	if err != nil {
		respondServiceError(w, err)
		return
	}
	summary, err := s.participationSvc.Stats(id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
