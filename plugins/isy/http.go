package isy

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func registerRoutes(r chi.Router, client *Client) {
	r.Get("/inventory", inventoryHandler(client))
	r.Get("/nodes", nodesHandler(client))
	r.Get("/groups", groupsHandler(client))
	r.Get("/programs", programsHandler(client))

	r.Get("/nodes/{address}", nodeHandler(client))
	r.Post("/nodes/{address}/on", nodeOnHandler(client))
	r.Post("/nodes/{address}/off", nodeOffHandler(client))

	r.Post("/programs/{id}/run", programCommandHandler(client, "run"))
	r.Post("/programs/{id}/runThen", programCommandHandler(client, "runThen"))
	r.Post("/programs/{id}/runElse", programCommandHandler(client, "runElse"))
}

func inventoryHandler(client *Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inventory, err := client.Inventory(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, inventory)
	}
}

func nodesHandler(client *Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inventory, err := client.Inventory(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, inventory.Nodes)
	}
}

func groupsHandler(client *Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inventory, err := client.Inventory(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, inventory.Groups)
	}
}

func programsHandler(client *Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		programs, err := client.Programs(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, programs)
	}
}

func nodeHandler(client *Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		device, err := client.Device(r.Context(), chi.URLParam(r, "address"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, device.Record())
	}
}

func nodeOnHandler(client *Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Level *int `json:"level"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
			return
		}
		if body.Level != nil && (*body.Level < 0 || *body.Level > 100) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "level out of range 0-100"})
			return
		}

		device, err := client.Device(r.Context(), chi.URLParam(r, "address"))
		if err != nil {
			writeError(w, err)
			return
		}

		if body.Level != nil {
			err = device.OnLevel(r.Context(), *body.Level)
		} else {
			err = device.On(r.Context())
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func nodeOffHandler(client *Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		device, err := client.Device(r.Context(), chi.URLParam(r, "address"))
		if err != nil {
			writeError(w, err)
			return
		}
		if err := device.Off(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func programCommandHandler(client *Client, cmd string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		program, err := client.Program(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}

		switch cmd {
		case "run":
			err = program.Run(r.Context())
		case "runThen":
			err = program.RunThen(r.Context())
		case "runElse":
			err = program.RunElse(r.Context())
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps client errors onto API status codes: unknown refs are
// 404s, controller-side failures are 502s.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var notFound NotFoundError
	var cmdErr CommandError
	var apiErr HTTPStatusError
	switch {
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &cmdErr), errors.As(err, &apiErr):
		status = http.StatusBadGateway
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}
