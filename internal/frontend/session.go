package frontend

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jo-hoe/cartoonize/internal/backend/session"
	"github.com/labstack/echo/v4"
)

const (
	SessionCookieName = "session"
	LoginPath         = "/login"

	identityContextKey = "identity"
)

// requireSession replaces the request with a redirect to the login page unless
// it carries a live session.
func (service *FrontendService) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		cookie, err := ctx.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			return ctx.Redirect(http.StatusSeeOther, LoginPath)
		}

		identity, err := service.coreService.CurrentIdentity(ctx.Request().Context(), cookie.Value)
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				slog.Error("requireSession: failed to resolve session", "error", err)
			}
			service.clearSessionCookie(ctx)
			return ctx.Redirect(http.StatusSeeOther, LoginPath)
		}

		ctx.Set(identityContextKey, identity)
		return next(ctx)
	}
}

func currentIdentity(ctx echo.Context) session.Identity {
	identity, _ := ctx.Get(identityContextKey).(session.Identity)
	return identity
}

func (service *FrontendService) setSessionCookie(ctx echo.Context, token string) {
	ttl := service.coreService.SessionTTL()
	ctx.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   service.config.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (service *FrontendService) clearSessionCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   service.config.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
