package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	return WithLocalizer(context.Background(), NewLocalizer(lang))
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		lang string
		id   string
		want string
	}{
		{"en", "AppTitle", "Exam Creator"},
		{"en", "Select", "Add to exam"},
		{"ru", "AppTitle", "Конструктор экзаменов"},
		{"ru", "Back", "Назад"},
	}

	for _, tt := range tests {
		t.Run(tt.lang+"/"+tt.id, func(t *testing.T) {
			ctx := initLang(t, tt.lang)
			if got := T(ctx, tt.id); got != tt.want {
				t.Errorf("T(%s) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")
	if got := Tp(ctx, "SelectedCount", 1); got != "1 exercise selected" {
		t.Errorf("Tp(SelectedCount, 1) = %q", got)
	}
	if got := Tp(ctx, "SelectedCount", 4); got != "4 exercises selected" {
		t.Errorf("Tp(SelectedCount, 4) = %q", got)
	}

	ctx = initLang(t, "ru")
	if got := Tp(ctx, "ResultsCount", 5); got != "5 результатов" {
		t.Errorf("Tp(ResultsCount, 5) = %q", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")
	got := Td(ctx, "SearchFor", map[string]any{"Term": "fractions"})
	if got != `Results for "fractions"` {
		t.Errorf("Td(SearchFor) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")
	if got := T(ctx, "NonExistentKey"); got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want the id back", got)
	}
}

func TestNegotiate(t *testing.T) {
	initLang(t, "en")
	tests := []struct {
		header string
		want   string
	}{
		{"", "en"},
		{"ru-RU,ru;q=0.9,en;q=0.8", "ru"},
		{"de-DE", "en"},
		{"en-GB", "en"},
	}
	for _, tt := range tests {
		if got := Negotiate(tt.header); got != tt.want {
			t.Errorf("Negotiate(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestMiddlewareQueryOverride(t *testing.T) {
	initLang(t, "en")
	var got string
	h := Middleware("en")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "Back")
	}))

	req := httptest.NewRequest(http.MethodGet, "/?lang=ru", nil)
	req.Header.Set("Accept-Language", "en")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "Назад" {
		t.Errorf("expected Russian translation, got %q", got)
	}
}
