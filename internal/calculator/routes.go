package calculator

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the calculator endpoints under /calculator and the
// history endpoints under /history. Both expect a resolved client ID.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/calculator", func(r chi.Router) {
		r.Get("/modes", h.Modes)
		r.Get("/state", h.State)
		r.Post("/{mode}", h.Calculate)
		r.Put("/{mode}/inputs", h.EditInputs)
		r.Post("/{mode}/clear", h.ClearInputs)
	})

	r.Route("/history", func(r chi.Router) {
		r.Get("/", h.History)
		r.Delete("/", h.ClearHistory)
		r.Post("/{index}/load", h.LoadEntry)
		r.Get("/{index}/permalink", h.EntryPermalink)
	})
}
