package i18n

import "net/http"

// Middleware injects a localizer into every request context. A "lang"
// query parameter wins over the Accept-Language header; the configured
// default language is the last fallback.
func Middleware(defaultLang string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := r.URL.Query().Get("lang")
			if lang == "" {
				lang = Negotiate(r.Header.Get("Accept-Language"))
			}
			loc := NewLocalizer(lang, defaultLang)
			next.ServeHTTP(w, r.WithContext(WithLocalizer(r.Context(), loc)))
		})
	}
}
