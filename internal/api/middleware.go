package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fastprodman/coinmarket/internal/auth"
	"github.com/fastprodman/coinmarket/internal/infra/idempotency"
	"github.com/fastprodman/coinmarket/internal/infra/logging"
	"github.com/fastprodman/coinmarket/internal/repos/users"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
)

type accountKey struct{}

func withAccount(ctx context.Context, a users.Account) context.Context {
	return context.WithValue(ctx, accountKey{}, a)
}

func accountFrom(ctx context.Context) (users.Account, bool) {
	a, ok := ctx.Value(accountKey{}).(users.Account)
	return a, ok
}

// requestLogger puts a request-scoped logger in the context and logs one line
// per request.
func requestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			l := base.With(
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(logging.Into(r.Context(), l)))

			l.Info("http request",
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}

// authenticate resolves the bearer token to an active account or answers 401.
func (h *HandlerProvider) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			unauthorized(w, r, msgNoCredentials)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			unauthorized(w, r, "Authentication failed: malformed Authorization header")
			return
		}

		a, err := h.accounts.Authenticate(r.Context(), parts[1])
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) {
				writeServiceError(w, r, err)
				return
			}

			logging.From(r.Context()).Debug("token rejected", "error", err)
			unauthorized(w, r, "Authentication failed: "+err.Error())

			return
		}

		ctx := withAccount(r.Context(), a)
		ctx = logging.Into(ctx, logging.From(ctx).With("account_id", a.ID))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	writeDetail(w, r, http.StatusUnauthorized, msg)
}

func requireRole(role users.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := accountFrom(r.Context())
			if !ok || !auth.HasRole(a, role) {
				writeDetail(w, r, http.StatusForbidden, msgForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// idempotent replays the stored response for a repeated Idempotency-Key.
// Requests without the header, or servers without a store, pass through.
// Only responses below 500 are remembered. Reusing a key with a different
// body is rejected.
func (h *HandlerProvider) idempotent(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey := strings.TrimSpace(r.Header.Get(headerIdempotencyKey))
			a, ok := accountFrom(r.Context())

			if h.idem == nil || clientKey == "" || !ok {
				next.ServeHTTP(w, r)
				return
			}

			raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
			if err != nil {
				writeDetail(w, r, http.StatusBadRequest, "unreadable body")
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(raw))

			ctx := r.Context()
			key := idempotency.Key(a.ID, route, clientKey)
			fingerprint := idempotency.Fingerprint(raw)

			stored, err := h.idem.Begin(ctx, key, fingerprint)
			if err != nil {
				if errors.Is(err, idempotency.ErrInProgress) || errors.Is(err, idempotency.ErrKeyReused) {
					writeServiceError(w, r, err)
					return
				}

				logging.From(ctx).Error("idempotency begin failed", "error", err)
				writeDetail(w, r, http.StatusServiceUnavailable, msgStoreUnhealthy)

				return
			}

			if stored != nil {
				w.Header().Set("Content-Type", stored.ContentType)
				w.Header().Set(headerReplayed, "true")
				w.WriteHeader(stored.Status)
				_, _ = w.Write(stored.Body)

				return
			}

			var body bytes.Buffer

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&body)

			next.ServeHTTP(ww, r)

			// The request context may already be canceled by the client.
			storeCtx := context.WithoutCancel(ctx)

			if ww.Status() >= http.StatusInternalServerError {
				err = h.idem.Release(storeCtx, key)
			} else {
				err = h.idem.Complete(storeCtx, key, idempotency.Response{
					Fingerprint: fingerprint,
					Status:      ww.Status(),
					ContentType: ww.Header().Get("Content-Type"),
					Body:        body.Bytes(),
				})
			}

			if err != nil {
				logging.From(ctx).Error("idempotency finish failed", "key", key, "error", err)
			}
		})
	}
}
