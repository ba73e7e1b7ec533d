package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"nipcheck/internal/nip/service"
	"nipcheck/internal/nip/store/cache"
	"nipcheck/pkg/testutil"
)

// HandlerSuite exercises HTTP concerns (routing, parsing, response mapping)
// against the real service and in-memory cache.
type HandlerSuite struct {
	suite.Suite
	router http.Handler
	cache  *cache.InMemoryCache
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	c, err := cache.NewInMemoryCache(16)
	s.Require().NoError(err)
	s.cache = c

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := service.New(c, service.WithLogger(logger))
	s.Require().NoError(err)

	r := chi.NewRouter()
	New(svc, logger).Register(r)
	s.router = r
}

func (s *HandlerSuite) TearDownTest() {
	s.cache.Close()
}

// =============================================================================
// GET /api/validate/nip/{input}
// =============================================================================

func (s *HandlerSuite) TestValidate() {
	tests := []struct {
		input string
		want  bool
	}{
		{"1234563218", true},
		{"1234563219", false},
		{"123", false},
		{"abcdefghij", false},
		{"12345632181", true},
	}
	for _, tt := range tests {
		s.Run(tt.input, func() {
			rr := testutil.Get(s.router, "/api/validate/nip/"+tt.input)
			testutil.AssertStatus(s.T(), rr, http.StatusOK)
			resp := testutil.UnmarshalResponse[ValidateResponse](s.T(), rr)
			s.Equal(tt.want, resp.IsValid)
		})
	}
}

func (s *HandlerSuite) TestValidate_JSONShape() {
	rr := testutil.Get(s.router, "/api/validate/nip/1234563218")
	s.Equal("application/json", rr.Header().Get("Content-Type"))
	s.JSONEq(`{"isValid":true}`, rr.Body.String())
}

// =============================================================================
// GET /api/guess/nip/{input}
// =============================================================================

func (s *HandlerSuite) TestGuess_Found() {
	rr := testutil.Get(s.router, "/api/guess/nip/123456321x")
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	s.JSONEq(`{"possibilities":["1234563218"]}`, rr.Body.String())
}

func (s *HandlerSuite) TestGuess_EmptyIsSuccess() {
	rr := testutil.Get(s.router, "/api/guess/nip/123456326x")
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	s.JSONEq(`{"possibilities":[]}`, rr.Body.String())
}

func (s *HandlerSuite) TestGuess_Order() {
	rr := testutil.Get(s.router, "/api/guess/nip/x23456321x")
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[GuessResponse](s.T(), rr)
	s.Require().Len(resp.Possibilities, 9)
	s.Equal("0234563212", resp.Possibilities[0])
	s.Equal("9234563211", resp.Possibilities[8])
}

func (s *HandlerSuite) TestGuess_InputLength() {
	rr := testutil.Get(s.router, "/api/guess/nip/12345")
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "INPUT_LENGTH")
}

func (s *HandlerSuite) TestGuess_MaxPlaceholders() {
	rr := testutil.Get(s.router, "/api/guess/nip/xxxx563218")
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "MAX_PLACEHOLDERS")
}

func (s *HandlerSuite) TestGuess_SecondCallServedFromCache() {
	first := testutil.Get(s.router, "/api/guess/nip/12345632xx")
	testutil.AssertStatus(s.T(), first, http.StatusOK)
	s.cache.Wait()

	cached, ok, err := s.cache.Get(context.Background(), "12345632xx")
	s.Require().NoError(err)
	s.True(ok)
	s.Len(cached, 9)

	second := testutil.Get(s.router, "/api/guess/nip/12345632xx")
	s.JSONEq(first.Body.String(), second.Body.String())
}

// =============================================================================
// GET /
// =============================================================================

func (s *HandlerSuite) TestPage_NoInput() {
	rr := testutil.Get(s.router, "/")
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	body := rr.Body.String()
	s.Contains(rr.Header().Get("Content-Type"), "text/html")
	s.Contains(body, "<form")
	s.NotContains(body, `class="possibilities"`)
	s.NotContains(body, `class="empty"`)
}

func (s *HandlerSuite) TestPage_WithInput() {
	rr := testutil.Get(s.router, "/?input=123456321x")
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	body := rr.Body.String()
	s.Contains(body, `value="123456321x"`)
	s.Contains(body, "<li>1234563218</li>")
}

func (s *HandlerSuite) TestPage_NoCompletion() {
	rr := testutil.Get(s.router, "/?input=123456326x")
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	s.Contains(rr.Body.String(), `class="empty"`)
}

func (s *HandlerSuite) TestPage_InputError() {
	rr := testutil.Get(s.router, "/?input=xxxx563218")
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	s.Contains(rr.Body.String(), "Too many placeholders")
}

func (s *HandlerSuite) TestPage_EscapesInput() {
	rr := testutil.Get(s.router, "/?input=%3Cscript%3E")
	s.NotContains(rr.Body.String(), "<script>")
}

// =============================================================================
// Error mapping with a failing service
// =============================================================================

type failingService struct{}

func (failingService) Validate(context.Context, string) (*service.ValidateResult, error) {
	return nil, errors.New("validator exploded")
}

func (failingService) Guess(context.Context, string) (*service.GuessResult, error) {
	return nil, errors.New("search exploded")
}

func TestHandler_InternalErrorsAreOpaque(t *testing.T) {
	r := chi.NewRouter()
	New(failingService{}, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)

	for _, path := range []string{"/api/validate/nip/1234563218", "/api/guess/nip/123456321x"} {
		rr := testutil.Get(r, path)
		require.Equal(t, http.StatusInternalServerError, rr.Code, path)
		assert.NotContains(t, rr.Body.String(), "exploded")
	}

	rr := testutil.Get(r, "/?input=123456321x")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.False(t, strings.Contains(rr.Body.String(), "exploded"))
}

func TestHandler_GuessMiddlewareApplied(t *testing.T) {
	c, err := cache.NewInMemoryCache(4)
	require.NoError(t, err)
	defer c.Close()
	svc, err := service.New(c, service.WithCacheTTL(time.Minute))
	require.NoError(t, err)

	var hits int
	counting := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			next.ServeHTTP(w, r)
		})
	}

	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r, counting)

	testutil.Get(r, "/api/validate/nip/1234563218")
	assert.Equal(t, 0, hits, "validate is not guarded")
	testutil.Get(r, "/api/guess/nip/123456321x")
	testutil.Get(r, "/?input=123456321x")
	assert.Equal(t, 2, hits)

	rr := testutil.Get(r, "/")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2, hits, "page without a search is not guarded")
}

// recordingService captures the input handed over by the router.
type recordingService struct {
	identifiers []string
	patterns    []string
}

func (s *recordingService) Validate(_ context.Context, identifier string) (*service.ValidateResult, error) {
	s.identifiers = append(s.identifiers, identifier)
	return &service.ValidateResult{}, nil
}

func (s *recordingService) Guess(_ context.Context, pattern string) (*service.GuessResult, error) {
	s.patterns = append(s.patterns, pattern)
	return &service.GuessResult{Possibilities: []string{}}, nil
}

func TestHandler_PathInputDecodedOnce(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"plain", "/api/validate/nip/1234563218", "1234563218"},
		{"escaped percent stays literal", "/api/validate/nip/12345632%2531", "12345632%31"},
		{"escaped slash is decoded", "/api/validate/nip/1234%2F563218", "1234/563218"},
		{"escaped letter", "/api/validate/nip/123456321%78", "123456321x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingService{}
			r := chi.NewRouter()
			New(rec, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)

			rr := testutil.Get(r, tt.path)
			require.Equal(t, http.StatusOK, rr.Code)
			require.Len(t, rec.identifiers, 1)
			assert.Equal(t, tt.want, rec.identifiers[0])
		})
	}

	t.Run("escaped percent never becomes a wildcard", func(t *testing.T) {
		rec := &recordingService{}
		r := chi.NewRouter()
		New(rec, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)

		testutil.Get(r, "/api/guess/nip/12345632%2578")
		require.Len(t, rec.patterns, 1)
		assert.Equal(t, "12345632%78", rec.patterns[0])
	})
}
