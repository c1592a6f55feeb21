package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ClientCookie names the cookie that identifies a client across requests.
const ClientCookie = "percently_client"

type clientIDKey struct{}

// ClientIDMiddleware resolves the client every request acts for: the
// X-Client-ID header, then the percently_client cookie, then a freshly
// minted ID that is handed back as a cookie. Only UUIDs are accepted.
func ClientIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := clientIDFromRequest(r)
		if !ok {
			id = uuid.New().String()
			http.SetCookie(w, &http.Cookie{
				Name:     ClientCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Expires:  time.Now().AddDate(1, 0, 0),
			})
		}
		w.Header().Set("X-Client-ID", id)

		next.ServeHTTP(w, r.WithContext(ContextWithClientID(r.Context(), id)))
	})
}

func clientIDFromRequest(r *http.Request) (string, bool) {
	if id := r.Header.Get("X-Client-ID"); isClientID(id) {
		return id, true
	}
	if c, err := r.Cookie(ClientCookie); err == nil && isClientID(c.Value) {
		return c.Value, true
	}
	return "", false
}

func isClientID(s string) bool {
	if s == "" {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func ContextWithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientIDKey{}, id)
}

func ClientIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(clientIDKey{}).(string)
	return id
}
