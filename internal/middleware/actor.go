package middleware

import (
	"context"
	"log"
	"net/http"

	"github.com/zhouzirui/rizzmate/backend/internal/auth"
	"github.com/zhouzirui/rizzmate/backend/internal/model/credit"
	"github.com/zhouzirui/rizzmate/backend/pkg/utils"
)

type actorKey struct{}

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// ActorConfig controls actor resolution.
type ActorConfig struct {
	// Verifier may be nil, in which case every request is a guest.
	Verifier          TokenVerifier
	GuestCreditsStart int
}

// ResolveActor attaches the request's actor to its context. A request
// without an Authorization header is a guest; a present but invalid token
// is rejected with 401.
func ResolveActor(cfg ActorConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || cfg.Verifier == nil {
				store := NewCookieGuestStore(w, r, cfg.GuestCreditsStart)
				next.ServeHTTP(store.Writer(), r.WithContext(WithActor(r.Context(), credit.GuestActor(store))))
				return
			}

			token, ok := auth.ExtractBearerToken(header)
			if !ok {
				log.Printf("[auth] malformed Authorization header path=%s", r.URL.Path)
				utils.RespondError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			claims, err := cfg.Verifier.Verify(token)
			if err != nil {
				log.Printf("[auth] token invalid path=%s err=%v", r.URL.Path, err)
				utils.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := WithActor(r.Context(), credit.AccountActor(claims.Identity()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAccount rejects guests with 401.
func RequireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok || actor.IsGuest() {
			utils.RespondError(w, http.StatusUnauthorized, "sign-in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithActor stores actor in ctx.
func WithActor(ctx context.Context, actor credit.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor set by ResolveActor.
func ActorFromContext(ctx context.Context) (credit.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(credit.Actor)
	return actor, ok
}
