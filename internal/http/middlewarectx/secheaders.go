package middlewarectx

import "net/http"

// SecurityHeaders возвращает middleware, добавляющее заголовки безопасности
// к каждому ответу и убирающее заголовок идентификации сервера. Заголовки
// выставляются до вызова следующего обработчика, поэтому присутствуют и на
// ответах 500, сформированных Recoverer после паники ниже по цепочке.
func SecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Content-Security-Policy",
				"default-src 'self'; frame-ancestors 'none'")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(&serverHeaderStripper{ResponseWriter: w}, r)
		})
	}
}

// serverHeaderStripper убирает заголовок Server непосредственно перед записью
// статуса, перекрывая значения, выставленные обработчиками ниже по цепочке.
type serverHeaderStripper struct {
	http.ResponseWriter
}

func (s *serverHeaderStripper) WriteHeader(code int) {
	s.Header().Del("Server")
	s.ResponseWriter.WriteHeader(code)
}

func (s *serverHeaderStripper) Write(b []byte) (int, error) {
	s.Header().Del("Server")
	return s.ResponseWriter.Write(b)
}
