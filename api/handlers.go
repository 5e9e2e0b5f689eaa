package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"offercube/evaluator"
	"offercube/manager"
	"offercube/offer"
	"offercube/store"
	"offercube/task"
)

// EvaluateResponse describes how one offer fared against a task.
type EvaluateResponse struct {
	OfferID         uuid.UUID         `json:"offer_id"`
	Hostname        string            `json:"hostname"`
	Passed          bool              `json:"passed"`
	Tree            []string          `json:"tree"`
	Recommendations []string          `json:"recommendations"`
	Report          *evaluator.Report `json:"report"`
}

func (a *Api) StartTaskHandler(w http.ResponseWriter, r *http.Request) {
	t, ok := a.decodeTask(w, r)
	if !ok {
		return
	}

	if err := a.Manager.AddTask(t); err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, t)
}

func (a *Api) GetTasksHandler(w http.ResponseWriter, r *http.Request) {
	tasks, err := a.Manager.GetTasks()
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	a.writeJSON(w, http.StatusOK, tasks)
}

func (a *Api) GetTaskHandler(w http.ResponseWriter, r *http.Request) {
	t, err := a.Manager.GetTask(chi.URLParam(r, "taskID"))
	if err != nil {
		a.writeError(w, statusOf(err), err)
		return
	}
	a.writeJSON(w, http.StatusOK, t)
}

func (a *Api) StopTaskHandler(w http.ResponseWriter, r *http.Request) {
	err := a.Manager.StopTask(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil {
		a.writeError(w, statusOf(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *Api) AddOfferHandler(w http.ResponseWriter, r *http.Request) {
	d := json.NewDecoder(r.Body)
	d.DisallowUnknownFields()

	o := &offer.Offer{}
	if err := d.Decode(o); err != nil {
		a.writeError(w, http.StatusBadRequest, fmt.Errorf("error unmarshalling body: %w", err))
		return
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	for i := range o.Resources {
		if o.Resources[i].Role == "" {
			o.Resources[i].Role = offer.AnyRole
		}
	}

	if err := a.Manager.AddOffer(o); err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, o)
}

func (a *Api) GetOffersHandler(w http.ResponseWriter, r *http.Request) {
	offers, err := a.Manager.GetOffers()
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	a.writeJSON(w, http.StatusOK, offers)
}

// EvaluateHandler runs a task against the stored offers without queueing
// it.
func (a *Api) EvaluateHandler(w http.ResponseWriter, r *http.Request) {
	t, ok := a.decodeTask(w, r)
	if !ok {
		return
	}

	results, err := a.Manager.Evaluate(r.Context(), t)
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := make([]EvaluateResponse, 0, len(results))
	for _, res := range results {
		resp = append(resp, EvaluateResponse{
			OfferID:         res.Offer.ID,
			Hostname:        res.Offer.Hostname,
			Passed:          res.Passing(),
			Tree:            evaluator.Lines(res.Outcome),
			Recommendations: offer.Strings(res.Recommendations),
			Report:          evaluator.NewReport(res.Outcome),
		})
	}
	a.writeJSON(w, http.StatusOK, resp)
}

func (a *Api) GetDecisionsHandler(w http.ResponseWriter, r *http.Request) {
	ds, err := a.Manager.Decisions()
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if ds == nil {
		ds = []*manager.Decision{}
	}
	a.writeJSON(w, http.StatusOK, ds)
}

func (a *Api) decodeTask(w http.ResponseWriter, r *http.Request) (*task.Task, bool) {
	d := json.NewDecoder(r.Body)
	d.DisallowUnknownFields()

	var s task.Spec
	if err := d.Decode(&s); err != nil {
		a.writeError(w, http.StatusBadRequest, fmt.Errorf("error unmarshalling body: %w", err))
		return nil, false
	}
	t, err := s.Task()
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	return t, true
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, manager.ErrNotLaunched):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (a *Api) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log.Error("error encoding response", err)
	}
}

func (a *Api) writeError(w http.ResponseWriter, status int, err error) {
	a.log.Warn("request failed", "status", status, "error", err)
	a.writeJSON(w, status, ErrResponse{HTTPStatusCode: status, Message: err.Error()})
}
