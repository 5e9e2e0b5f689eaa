// Package api exposes the manager over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"offercube/logger"
	"offercube/manager"
)

type Api struct {
	Address string
	Manager *manager.Manager
	Router  *chi.Mux

	log logger.Logger
}

// ErrResponse is the body of every non-2xx response.
type ErrResponse struct {
	HTTPStatusCode int    `json:"status"`
	Message        string `json:"message"`
}

func New(address string, m *manager.Manager) *Api {
	a := &Api{
		Address: address,
		Manager: m,
		log:     logger.New("api", "address", address),
	}
	a.initRouter()
	return a
}

func (a *Api) initRouter() {
	a.Router = chi.NewRouter()
	a.Router.Use(middleware.Recoverer)

	a.Router.Route("/tasks", func(r chi.Router) {
		r.Post("/", a.StartTaskHandler)
		r.Get("/", a.GetTasksHandler)
		r.Route("/{taskID}", func(r chi.Router) {
			r.Get("/", a.GetTaskHandler)
			r.Delete("/", a.StopTaskHandler)
		})
	})
	a.Router.Route("/offers", func(r chi.Router) {
		r.Post("/", a.AddOfferHandler)
		r.Get("/", a.GetOffersHandler)
	})
	a.Router.Post("/evaluate", a.EvaluateHandler)
	a.Router.Get("/decisions", a.GetDecisionsHandler)
	a.Router.Handle("/metrics", promhttp.Handler())
}

// Start serves the API until ctx is canceled.
func (a *Api) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Address,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.log.Info("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
