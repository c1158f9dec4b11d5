package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixbrock/promptenhancer/internal/domain"
)

type fakeGenerator struct {
	text  string
	err   error
	calls []domain.GenerationRequest
}

func (g *fakeGenerator) Name() string {
	return "fake"
}

func (g *fakeGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	g.calls = append(g.calls, req)
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	next     int
}

func (r *memSessionRepo) Acquire(id string) domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		return s
	}
	r.next++
	s := domain.Session{Id: fmt.Sprintf("session-%d", r.next)}
	r.sessions[s.Id] = s
	return s
}

func (r *memSessionRepo) Release(s domain.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.Id] = s
}

type testClient struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
	repo    *memSessionRepo
	gen     *fakeGenerator
}

func newTestClient(t *testing.T) *testClient {
	repo := &memSessionRepo{sessions: map[string]domain.Session{}}
	gen := &fakeGenerator{text: "ENHANCED: ..."}
	a := App{Generator: gen, SessionRepo: repo}

	return &testClient{t: t, handler: a.Handler(), repo: repo, gen: gen}
}

func (c *testClient) do(method string, target string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.Name == sessionCookie {
			c.cookie = ck
		}
	}

	return rec
}

func (c *testClient) state() domain.SessionState {
	c.t.Helper()
	require.NotNil(c.t, c.cookie)
	return c.repo.sessions[c.cookie.Value].State
}

func validForm() url.Values {
	return url.Values{
		"credential": {"sk-test"},
		"role":       {"Python developer"},
		"context":    {"Building AI apps"},
		"task":       {"Help me build a Streamlit app"},
	}
}

func TestIndex_IssuesSessionCookie(t *testing.T) {
	c := newTestClient(t)

	rec := c.do("GET", "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	require.NotNil(t, c.cookie)
	assert.True(t, c.cookie.HttpOnly)
	assert.Equal(t, domain.SessionState{}, c.state())

	first := c.cookie.Value
	c.do("GET", "/", nil)
	assert.Equal(t, first, c.cookie.Value)
}

func TestEnhance_Success(t *testing.T) {
	c := newTestClient(t)

	rec := c.do("POST", "/enhance", validForm())
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, c.gen.calls, 1)
	assert.Equal(t, "sk-test", c.gen.calls[0].Credential)
	assert.Contains(t, c.gen.calls[0].User(), "Help me build a Streamlit app")

	assert.Equal(t, "ENHANCED: ...", c.state().EnhancedPrompt)
	assert.False(t, c.state().RatingSubmitted)

	body := rec.Body.String()
	assert.Contains(t, body, "ENHANCED: ...")
	assert.Equal(t, 5, strings.Count(body, `name="value"`))
	assert.NotContains(t, body, "sk-test")
}

func TestEnhance_MissingFields(t *testing.T) {
	for _, field := range []string{"credential", "role", "context", "task"} {
		t.Run(field, func(t *testing.T) {
			c := newTestClient(t)

			form := validForm()
			form.Set(field, "  ")
			rec := c.do("POST", "/enhance", form)

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), missingFieldsMsg)
			assert.Empty(t, c.gen.calls)
			assert.Equal(t, domain.SessionState{}, c.state())
		})
	}
}

func TestEnhance_MissingFieldKeepsExistingState(t *testing.T) {
	c := newTestClient(t)
	c.do("POST", "/enhance", validForm())
	c.do("POST", "/rate", url.Values{"value": {"3"}})
	before := c.state()

	form := validForm()
	form.Set("task", "")
	rec := c.do("POST", "/enhance", form)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Len(t, c.gen.calls, 1)
	assert.Equal(t, before, c.state())
}

func TestEnhance_StoredCredentialIsReused(t *testing.T) {
	c := newTestClient(t)
	c.do("POST", "/enhance", validForm())

	form := validForm()
	form.Del("credential")
	rec := c.do("POST", "/enhance", form)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, c.gen.calls, 2)
	assert.Equal(t, "sk-test", c.gen.calls[1].Credential)
	assert.Contains(t, rec.Body.String(), "Stored for this session")
}

func TestEnhance_GenerationFailureKeepsState(t *testing.T) {
	c := newTestClient(t)
	c.do("POST", "/enhance", validForm())
	before := c.state()

	c.gen.err = errors.New("invalid api key")
	rec := c.do("POST", "/enhance", validForm())

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error: invalid api key")
	assert.Equal(t, before.EnhancedPrompt, c.state().EnhancedPrompt)
	assert.Equal(t, before.RatingSubmitted, c.state().RatingSubmitted)
	// the previous result is still on the page
	assert.Contains(t, rec.Body.String(), "ENHANCED: ...")
}

func TestRate_AfterSuccess(t *testing.T) {
	c := newTestClient(t)
	c.do("POST", "/enhance", validForm())

	rec := c.do("POST", "/rate", url.Values{"value": {"4"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.Rating(4), c.state().Rating)
	assert.True(t, c.state().RatingSubmitted)
	assert.Contains(t, rec.Body.String(), "Thanks for your 4⭐ rating!")

	rec = c.do("POST", "/rate", url.Values{"value": {"2"}})
	assert.Contains(t, rec.Body.String(), "Thanks for your 2⭐ rating!")
	assert.NotContains(t, rec.Body.String(), "Thanks for your 4⭐ rating!")
}

func TestRate_WithoutResultIsNoop(t *testing.T) {
	c := newTestClient(t)

	rec := c.do("POST", "/rate", url.Values{"value": {"5"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.SessionState{}, c.state())
	assert.NotContains(t, rec.Body.String(), "Thanks for your")
}

func TestRate_InvalidValue(t *testing.T) {
	c := newTestClient(t)
	c.do("POST", "/enhance", validForm())
	before := c.state()

	for _, v := range []string{"0", "6", "abc", ""} {
		rec := c.do("POST", "/rate", url.Values{"value": {v}})
		assert.Equal(t, http.StatusBadRequest, rec.Code, v)
		assert.Contains(t, rec.Body.String(), invalidRatingMsg)
		assert.Equal(t, before, c.state())
	}
}

func TestEnhance_SecondSuccessResetsRating(t *testing.T) {
	c := newTestClient(t)
	c.do("POST", "/enhance", validForm())
	c.do("POST", "/rate", url.Values{"value": {"4"}})

	c.gen.text = "ENHANCED: again"
	rec := c.do("POST", "/enhance", validForm())

	assert.Equal(t, "ENHANCED: again", c.state().EnhancedPrompt)
	assert.False(t, c.state().RatingSubmitted)
	assert.NotContains(t, rec.Body.String(), "Thanks for your")
}

func TestRoutes_Errors(t *testing.T) {
	c := newTestClient(t)

	rec := c.do("GET", "/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not found")

	rec = c.do("GET", "/enhance", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "Method not allowed")

	rec = c.do("DELETE", "/", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRoutes_Static(t *testing.T) {
	c := newTestClient(t)

	rec := c.do("GET", "/static/style.css", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".content-box")
}
