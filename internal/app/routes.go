package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/felixbrock/promptenhancer/internal/components"
	"github.com/felixbrock/promptenhancer/internal/domain"
	"github.com/felixbrock/promptenhancer/internal/log"
)

const (
	sessionCookie = "prompt_enhancer_session"

	missingFieldsMsg = "Please fill in all fields including the API key."
	invalidRatingMsg = "Please choose a rating between 1 and 5."
)

func page(code int, s domain.Session, notice *domain.Notice) *ComponentResponse {
	view := domain.NewView(s.State, notice)
	form := components.FormData{Draft: s.Draft, HasCredential: s.Credential != ""}

	return &ComponentResponse{Component: components.Index(view, form), Code: code, Message: "OK", ContentType: "text/html; charset=utf-8"}
}

func errPage(e errCtx, err error) *ComponentResponse {
	return &ComponentResponse{Component: components.Error(e.Code, e.Title, e.Msg), Code: e.Code, Message: e.Title, ContentType: "text/html; charset=utf-8", Error: err}
}

// withSession acquires the caller's session for the whole request and stores
// it back afterwards. A new cookie is issued when the session was unknown.
func (a App) withSession(w http.ResponseWriter, r *http.Request, fn func(*http.Request, *domain.Session) *ComponentResponse) *ComponentResponse {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}

	s := a.SessionRepo.Acquire(id)
	defer func() { a.SessionRepo.Release(s) }()

	if s.Id != id {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    s.Id,
			Path:     "/",
			HttpOnly: true,
			Secure:   a.Config.SecureCookie,
			SameSite: http.SameSiteLaxMode,
		})
	}

	r = r.WithContext(log.ContextWithSessionID(r.Context(), s.Id))

	return fn(r, &s)
}

func (a App) index(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	return a.withSession(w, r, func(r *http.Request, s *domain.Session) *ComponentResponse {
		return page(http.StatusOK, *s, nil)
	})
}

func (a App) enhance(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	if err := r.ParseForm(); err != nil {
		return errPage(get400(), err)
	}

	return a.withSession(w, r, func(r *http.Request, s *domain.Session) *ComponentResponse {
		// A credential stored for the session counts as supplied; the password
		// field is never echoed back, so a blank field means "keep the stored one".
		credential := r.PostFormValue("credential")
		if strings.TrimSpace(credential) == "" {
			credential = s.Credential
		}

		s.Draft = domain.PromptRequest{
			Role:    r.PostFormValue("role"),
			Context: r.PostFormValue("context"),
			Task:    r.PostFormValue("task"),
		}

		req, err := domain.NewGenerationRequest(credential, s.Draft)

		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			log.WithCtx(r.Context()).Info("submission rejected", zap.Strings("missing", vErr.Missing))
			return page(http.StatusUnprocessableEntity, *s, domain.Warning(missingFieldsMsg))
		} else if err != nil {
			return errPage(get500(), err)
		}

		s.Credential = credential

		// the call runs to completion even if the client goes away
		start := time.Now()
		text, err := a.Generator.Generate(context.WithoutCancel(r.Context()), req)

		if err != nil {
			gErr := &domain.GenerationError{Err: err}
			s.State = domain.Reduce(s.State, domain.GenerationFailed(gErr))

			resp := page(http.StatusBadGateway, *s, domain.ErrorNotice(gErr))
			resp.Error = gErr
			resp.Message = "generation failed"
			return resp
		}

		s.State = domain.Reduce(s.State, domain.Generated(text))

		log.WithCtx(r.Context()).Info("prompt enhanced",
			zap.String("provider", a.Generator.Name()),
			zap.Duration("duration", time.Since(start)),
			zap.Int("length", len(text)))

		return page(http.StatusOK, *s, nil)
	})
}

func (a App) rate(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	if err := r.ParseForm(); err != nil {
		return errPage(get400(), err)
	}

	return a.withSession(w, r, func(r *http.Request, s *domain.Session) *ComponentResponse {
		rating, err := domain.ParseRating(r.PostFormValue("value"))

		if err != nil {
			log.WithCtx(r.Context()).Info("rating rejected", zap.Error(err))
			return page(http.StatusBadRequest, *s, domain.Warning(invalidRatingMsg))
		}

		s.State = domain.Reduce(s.State, domain.Rate(rating))

		log.WithCtx(r.Context()).Info("rating selected",
			zap.Int("rating", int(rating)),
			zap.Stringer("display", s.State.Display()))

		return page(http.StatusOK, *s, nil)
	})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	return errPage(get405(), nil)
}

func notFound(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	return errPage(get404(), nil)
}
