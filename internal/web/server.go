// Package web serves the single-page browser chat over the cached query engine.
package web

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"docchat/internal/pkg/logger"
	"docchat/internal/session"
)

const (
	module        = "web"
	sessionCookie = "docchat_session"
)

// Config configures the chat server.
type Config struct {
	Title      string
	Greeting   string
	SessionTTL time.Duration
}

type Server struct {
	app      *fiber.App
	manager  *session.Manager
	sessions *SessionStore
	log      logger.Logger
	title    string
}

func New(cfg Config, manager *session.Manager, log logger.Logger) *Server {
	if cfg.Title == "" {
		cfg.Title = "Chat with your Docs"
	}
	if cfg.Greeting == "" {
		cfg.Greeting = session.DefaultGreeting
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = time.Hour
	}
	if log == nil {
		log = logger.NewNop()
	}
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		// Prompts and session ids outlive the request in the history store.
		Immutable: true,
		AppName:               cfg.Title,
	})
	s := &Server{
		app:      app,
		manager:  manager,
		sessions: NewSessionStore(cfg.SessionTTL, cfg.Greeting),
		log:      log,
		title:    cfg.Title,
	}
	app.Get("/", s.handlePage)
	app.Post("/", s.handleAsk)
	return s
}

// App exposes the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Warmup starts building the index in the background so the first page view
// shows the loading state instead of blocking.
func (s *Server) Warmup(ctx context.Context) {
	go func() {
		if _, err := s.manager.Get(ctx); err != nil {
			s.log.Error(module, "initialisation failed", map[string]any{"error": err})
			return
		}
		s.log.Info(module, "system ready", nil)
	}()
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.log.Info(module, "chat server listening", map[string]any{"addr": addr})
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error { return s.app.Shutdown() }

func (s *Server) handlePage(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, s.chatFor(c).history, "")
}

func (s *Server) handleAsk(c *fiber.Ctx) error {
	ch := s.chatFor(c)
	h := ch.history
	switch s.manager.State() {
	case session.StateInitializing:
		return s.render(c, fiber.StatusServiceUnavailable, h, "Still indexing your documents, please wait.")
	case session.StateFailed:
		return s.render(c, fiber.StatusServiceUnavailable, h, "")
	}

	prompt := strings.TrimSpace(c.FormValue("prompt"))
	if prompt == "" {
		return s.render(c, fiber.StatusOK, h, "")
	}
	asker, err := s.manager.Get(c.UserContext())
	if err != nil {
		return s.render(c, fiber.StatusServiceUnavailable, h, "")
	}
	ch.mu.Lock()
	_, err = session.Ask(c.UserContext(), h, asker, prompt)
	ch.mu.Unlock()
	if err != nil {
		s.log.Error(module, "query failed", map[string]any{"error": err})
		return s.render(c, fiber.StatusOK, h, "Error: "+err.Error())
	}
	return s.render(c, fiber.StatusOK, h, "")
}

func (s *Server) chatFor(c *fiber.Ctx) *chat {
	id, ch := s.sessions.Get(c.Cookies(sessionCookie))
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return ch
}

func (s *Server) render(c *fiber.Ctx, status int, h *session.History, notice string) error {
	html, err := renderPage(s.title, s.manager.State(), s.manager.Err(), notice, h.Messages())
	if err != nil {
		return err
	}
	c.Type("html")
	return c.Status(status).SendString(html)
}
