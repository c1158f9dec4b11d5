package app

import (
	"bytes"
	"net/http"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/felixbrock/promptenhancer/internal/log"
)

type ComponentResponse struct {
	Error       error
	Message     string
	Code        int
	ContentType string
	Component   templ.Component
}

type ComponentHandler func(http.ResponseWriter, *http.Request) *ComponentResponse

func (ch ComponentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := ch(w, r)

	if resp.Error != nil {
		log.WithCtx(r.Context()).Error("Error occurred",
			zap.String("path", r.URL.Path),
			zap.String("message", resp.Message),
			zap.Error(resp.Error))
	}

	// render before writing anything so a failed render can still become a 500
	var buf bytes.Buffer
	if err := resp.Component.Render(r.Context(), &buf); err != nil {
		log.WithCtx(r.Context()).Error("Error occurred rendering component", zap.Error(err))
		http.Error(w, "templ: failed to render template", http.StatusInternalServerError)
		return
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = "text/html; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)

	if resp.Code != 0 {
		w.WriteHeader(resp.Code)
	}

	if _, err := buf.WriteTo(w); err != nil {
		log.WithCtx(r.Context()).Error("Error occurred writing response", zap.Error(err))
	}
}
