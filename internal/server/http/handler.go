package http

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/leshachaplin/tracklog/internal/apierror"
	"github.com/leshachaplin/tracklog/internal/service"
)

type Handler struct {
	ingest service.Ingest
	logger zerolog.Logger
}

func NewHandler(ingest service.Ingest, logger zerolog.Logger) *Handler {
	return &Handler{
		ingest: ingest,
		logger: logger,
	}
}

func (h *Handler) error(err error, w http.ResponseWriter) {
	var apiErr apierror.Error
	if !errors.As(err, &apiErr) {
		apiErr = apierror.NewAPIError(err.Error(), http.StatusInternalServerError)
	}

	if err = encodeJSONResponse(w, apiErr.StatusCode(), apiErr); err != nil {
		h.logger.Error().Err(err).Msg("could not write error response")
	}
}
