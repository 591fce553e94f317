package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/keymarket/internal/logging"
	"github.com/Skotchmaster/keymarket/internal/session"
)

const entryKey = "session_entry"

func Common(base *slog.Logger) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		ecM.Recover(),
		ecM.RequestID(),
		RequestLogger(base),
		ecM.Secure(),
	}
}

// RequestLogger puts a request-scoped logger into the context and writes one
// line per request. The session id is attached once the session middleware
// has resolved it.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = req.Header.Get(echo.HeaderXRequestID)
			}

			l := base.With("method", req.Method, "route", c.Path(), "remote_ip", c.RealIP())
			if rid != "" {
				l = l.With("request_id", rid)
			}
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Echo().HTTPErrorHandler(err, c)
			}

			if entry, ok := c.Get(entryKey).(*session.Entry); ok {
				l = l.With("session_id", entry.ID)
			}

			status := c.Response().Status
			attrs := []any{"status", status, "duration_ms", time.Since(start).Milliseconds()}
			if err != nil {
				attrs = append(attrs, "error", err.Error())
			}
			l.Log(req.Context(), requestLevel(status, err), "request_completed", attrs...)
			return nil
		}
	}
}

func requestLevel(status int, err error) slog.Level {
	switch {
	case err != nil || status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

type SessionConfig struct {
	Manager *session.Manager
	Secret  []byte
	TTL     time.Duration
	Secure  bool
}

// Session resolves the caller's session from the session cookie, creating a
// new one when the cookie is missing, invalid or points at an expired
// session. The cookie is re-issued on every request so its expiry slides
// with activity.
func Session(cfg SessionConfig) echo.MiddlewareFunc {
	if cfg.TTL <= 0 {
		cfg.TTL = session.DefaultTTL
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx)

			var entry *session.Entry
			if ck, err := c.Cookie(session.CookieName); err == nil && ck.Value != "" {
				id, err := session.ParseToken(ck.Value, cfg.Secret)
				switch {
				case err == nil:
					entry, _ = cfg.Manager.Get(id)
				case errors.Is(err, session.ErrInvalidToken):
					l.Warn("session_token_rejected", "error", err)
				}
			}
			if entry == nil {
				entry = cfg.Manager.Create()
				l.Info("session_created", "session_id", entry.ID)
			}
			cfg.Manager.Touch(entry)

			exp := time.Now().Add(cfg.TTL)
			token, err := session.IssueToken(entry.ID, exp, cfg.Secret)
			if err != nil {
				l.Error("session_token_error", "status", 500, "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
			}
			c.SetCookie(&http.Cookie{
				Name:     session.CookieName,
				Value:    token,
				Path:     "/",
				Expires:  exp,
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: http.SameSiteLaxMode,
			})

			c.Set(entryKey, entry)
			c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, l.With("session_id", entry.ID))))
			return next(c)
		}
	}
}

func entryFrom(c echo.Context) (*session.Entry, error) {
	e, ok := c.Get(entryKey).(*session.Entry)
	if !ok || e == nil {
		return nil, errors.New("no session")
	}
	return e, nil
}
