package httpapi

import (
	"net/http"
)

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	subscription, err := s.services.Billing.GetSubscription(r.Context(), principal, r.PathValue("businessID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toSubscriptionPayload(subscription))
}

type changePlanRequest struct {
	Plan string `json:"plan"`
}

func (s *Server) handleChangePlan(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req changePlanRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	subscription, proration, err := s.services.Billing.ChangePlan(r.Context(), principal, r.PathValue("businessID"), req.Plan)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, planChangePayload{
		Subscription: toSubscriptionPayload(subscription),
		Proration: prorationPayload{
			Credit:    proration.Credit,
			Charge:    proration.Charge,
			AmountDue: proration.AmountDue,
		},
	})
}

func (s *Server) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cancelled, err := s.services.Billing.CancelSubscription(r.Context(), principal, r.PathValue("businessID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toSubscriptionPayload(cancelled))
}

func (s *Server) handleGetUsage(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	usage, err := s.services.Billing.GetUsage(r.Context(), principal, r.PathValue("businessID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toUsagePayload(usage))
}

func (s *Server) handleListCycles(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pageSize, pageToken := pageParams(r)
	page, err := s.services.Billing.ListCycles(r.Context(), principal, r.PathValue("businessID"), pageSize, pageToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toCyclePagePayload(page))
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string][]planPayload{"plans": toPlanPayloads(s.services.Billing.ListPlans())})
}
