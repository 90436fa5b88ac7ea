package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"webrag/internal/domain"
	"webrag/internal/metrics"
	"webrag/internal/session"
)

// Server exposes sessions over HTTP. Each session is independent; requests
// against one session are expected to come from a single client.
type Server struct {
	e      *echo.Echo
	store  *session.Store
	ctrl   *session.Controller
	logger *log.Logger
}

func New(store *session.Store, ctrl *session.Controller, rec *metrics.Recorder, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]any{"error": msg})
		}
	}

	s := &Server{e: e, store: store, ctrl: ctrl, logger: logger}
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if rec != nil {
		e.GET("/metrics", echo.WrapHandler(rec.Handler()))
	}
	s.register(e.Group("/api/sessions"))
	return s
}

func (s *Server) register(g *echo.Group) {
	g.POST("", s.create)
	g.GET("/:id", s.get)
	g.DELETE("/:id", s.remove)
	g.PUT("/:id/url", s.submitURL)
	g.DELETE("/:id/url", s.clearURL)
	g.POST("/:id/questions", s.ask)
}

// ServeHTTP makes the server usable with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.e.ServeHTTP(w, r) }

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Printf("listening on %s", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.e,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := s.e.StartServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.store.Close()
	return s.e.Shutdown(ctx)
}

func (s *Server) session(c echo.Context) (*session.Session, error) {
	sess, ok := s.store.Get(c.Param("id"))
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return sess, nil
}

func (s *Server) create(c echo.Context) error {
	sess := s.store.Create()
	return c.JSON(http.StatusCreated, sess.Snapshot())
}

func (s *Server) get(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess.Snapshot())
}

func (s *Server) remove(c echo.Context) error {
	if !s.store.Delete(c.Param("id")) {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) submitURL(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var req struct {
		URL string `json:"url"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	snap, err := s.ctrl.SubmitURL(c.Request().Context(), sess, req.URL)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, snap)
	case errors.Is(err, session.ErrStale):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return c.JSON(http.StatusUnprocessableEntity, snap)
	}
}

func (s *Server) clearURL(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.ctrl.ClearURL(sess))
}

type passage struct {
	ChunkID string  `json:"chunk_id"`
	Index   int     `json:"index"`
	Score   float64 `json:"score"`
	Text    string  `json:"text"`
}

type answerResponse struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	Snippet  string    `json:"snippet"`
	Sources  []passage `json:"sources"`
}

func (s *Server) ask(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var req struct {
		Question string `json:"question"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := s.ctrl.Ask(c.Request().Context(), sess, req.Question)
	if err != nil {
		return echo.NewHTTPError(askStatus(err), userMessage(sess, err))
	}
	out := answerResponse{Question: res.Question, Answer: res.Answer, Snippet: res.Snippet}
	for _, r := range res.Chunks {
		out.Sources = append(out.Sources, passage{ChunkID: r.Chunk.ChunkID, Index: r.Chunk.Index, Score: r.Score, Text: r.Chunk.Text})
	}
	return c.JSON(http.StatusOK, out)
}

func askStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrEmptyQuestion):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotReady), errors.Is(err, session.ErrStale):
		return http.StatusConflict
	case errors.Is(err, domain.KindConfig):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// userMessage prefers the message recorded on the session for pipeline
// failures.
func userMessage(sess *session.Session, err error) string {
	if domain.KindOf(err) != 0 {
		if msg := sess.Snapshot().Error; msg != "" {
			return msg
		}
	}
	return err.Error()
}
