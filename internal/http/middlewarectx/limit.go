package middlewarectx

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/access-guard/internal/audit"
	"github.com/magabrotheeeer/access-guard/internal/config"
	"github.com/magabrotheeeer/access-guard/internal/http/response"
	"github.com/magabrotheeeer/access-guard/internal/ratelimit"
)

// KeyBy определяет источник идентификатора для подсчёта лимита.
type KeyBy int

const (
	// KeyByIP — лимит считается по IP-адресу клиента.
	KeyByIP KeyBy = iota
	// KeyByUser — лимит считается по идентификатору пользователя,
	// для анонимов с откатом на IP.
	KeyByUser
)

// RateLimit возвращает middleware, ограничивающее частоту запросов по
// скользящему окну политики policy. Заголовки X-RateLimit-* выставляются на
// каждый охраняемый ответ; при блокировке возвращается 429 с Retry-After.
func RateLimit(limiter *ratelimit.Limiter, policy config.RatePolicy, policyName string, keyBy KeyBy,
	trustForwardedFor bool, aud *audit.Recorder, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := middleware.GetReqID(r.Context())

			identifier := identifierFor(r, keyBy, trustForwardedFor)

			blocked, info := limiter.Check(identifier, policy.Limit, policy.Window)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))

			if blocked {
				retrySeconds := int(math.Ceil(info.RetryAfter.Seconds()))
				aud.Block(requestID, r.URL.Path, identifier, policyName, info.RetryAfter)

				w.Header().Set("Retry-After", strconv.Itoa(retrySeconds))
				w.WriteHeader(http.StatusTooManyRequests)
				render.JSON(w, r, response.Denial("rate_limited",
					fmt.Sprintf("too many requests, retry in %d seconds", retrySeconds)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// identifierFor выбирает идентификатор для подсчёта лимита. Пустой принципал
// и неразобранный адрес дают идентификатор "unknown" — такие запросы
// считаются вместе и получают минимальные привилегии.
func identifierFor(r *http.Request, keyBy KeyBy, trustForwardedFor bool) string {
	if keyBy == KeyByUser {
		if p := PrincipalFromContext(r.Context()); p.IsAuthenticated && p.UID != "" {
			return "user:" + p.UID
		}
	}
	return "ip:" + clientIP(r, trustForwardedFor)
}

// clientIP извлекает адрес клиента: первый адрес из доверенного
// X-Forwarded-For, иначе адрес прямого соединения.
func clientIP(r *http.Request, trustForwardedFor bool) string {
	if trustForwardedFor {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			if ip := strings.TrimSpace(parts[0]); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
