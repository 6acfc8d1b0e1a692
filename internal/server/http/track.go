package http

import (
	"net/http"
	"time"

	"github.com/leshachaplin/tracklog/internal/apierror"
	"github.com/leshachaplin/tracklog/internal/wire"
)

const maxBodyBytes = 1 << 20

type acceptedResponse struct {
	Status int     `json:"status"`
	Error  *string `json:"error"`
}

// Track handles POST /track and GET /track.
func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	data, err := formData(w, r)
	if err != nil {
		h.error(err, w)
		return
	}

	clientIP := ""
	if r.URL.Query().Get("ip") == "1" {
		clientIP = getClientIP(r)
	}

	n, err := h.ingest.IngestEvents(data, clientIP, time.Now())
	if err != nil {
		h.error(err, w)
		return
	}
	h.logger.Debug().Int("events", n).Msg("events accepted")
	h.accepted(w, r)
}

// Engage handles POST /engage.
func (h *Handler) Engage(w http.ResponseWriter, r *http.Request) {
	data, err := formData(w, r)
	if err != nil {
		h.error(err, w)
		return
	}

	n, err := h.ingest.IngestProfiles(data, time.Now())
	if err != nil {
		h.error(err, w)
		return
	}
	h.logger.Debug().Int("profiles", n).Msg("profile updates accepted")
	h.accepted(w, r)
}

func (h *Handler) accepted(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("verbose") == "1" {
		if err := encodeJSONResponse(w, http.StatusOK, acceptedResponse{Status: 1}); err != nil {
			h.logger.Error().Err(err).Msg("could not write response")
		}
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("1"))
}

func formData(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return "", apierror.BadRequest("invalid form body: " + err.Error())
	}

	data := r.Form.Get(wire.FormKey)
	if data == "" {
		return "", apierror.BadRequest(wire.ErrMissingData.Error())
	}
	return data, nil
}
