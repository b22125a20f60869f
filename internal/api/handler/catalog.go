package handler

import (
	"net/http"

	"github.com/kiranshivaraju/visionpulse/internal/api/response"
	"github.com/kiranshivaraju/visionpulse/pkg/presets"
)

// Catalog lists the presets a request may name.
type Catalog interface {
	Styles() []presets.Style
	Voices() []presets.Voice
}

// NewStylesHandler returns an http.HandlerFunc for GET /api/v1/styles.
func NewStylesHandler(c Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, c.Styles())
	}
}

// NewVoicesHandler returns an http.HandlerFunc for GET /api/v1/voices.
func NewVoicesHandler(c Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, c.Voices())
	}
}
