package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/agurod42/outfox-health/internal/apperr"
	"github.com/agurod42/outfox-health/internal/model"
	"github.com/agurod42/outfox-health/internal/query"
	"github.com/agurod42/outfox-health/internal/search"
)

type fakeSearcher struct {
	rows    []model.ProviderOut
	err     error
	pingErr error
	filters []query.Filter
	asks    []search.AskRequest
}

func (f *fakeSearcher) Providers(_ context.Context, fl query.Filter) ([]model.ProviderOut, error) {
	f.filters = append(f.filters, fl)
	return f.rows, f.err
}

func (f *fakeSearcher) Ask(_ context.Context, req search.AskRequest) search.AskResponse {
	f.asks = append(f.asks, req)
	return search.AskResponse{Answer: "ok", Results: []model.ProviderOut{}}
}

func (f *fakeSearcher) Ping(context.Context) error { return f.pingErr }

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body["detail"]
}

func TestProviders_RequiresFilter(t *testing.T) {
	fs := &fakeSearcher{}
	rec := do(t, NewRouter(fs, zerolog.Nop()), http.MethodGet, "/providers", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !strings.Contains(detail(t, rec), "drg or zip") {
		t.Errorf("detail: %q", rec.Body.String())
	}
	if len(fs.filters) != 0 {
		t.Errorf("service should not be called")
	}
}

func TestProviders_BadParams(t *testing.T) {
	h := NewRouter(&fakeSearcher{}, zerolog.Nop())
	for _, target := range []string{
		"/providers?zip=1234",
		"/providers?zip=123456",
		"/providers?zip=abcde",
		"/providers?drg=470&radius_km=far",
	} {
		if rec := do(t, h, http.MethodGet, target, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d", target, rec.Code)
		}
	}
}

func TestProviders_OK(t *testing.T) {
	fs := &fakeSearcher{rows: []model.ProviderOut{{ProviderID: "330024", ProviderName: "Mount Sinai", Zip: "10029"}}}
	rec := do(t, NewRouter(fs, zerolog.Nop()), http.MethodGet, "/providers?drg=470&zip=10001&radius_km=40", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}
	var out []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0]["provider_id"] != "330024" {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
	if _, ok := out[0]["distance_km"]; ok {
		t.Errorf("distance_km should be omitted when unknown")
	}
	if got := fs.filters[0]; got.DRG != "470" || got.ZIP != "10001" || got.RadiusKm != 40 {
		t.Errorf("filter: %+v", got)
	}
}

func TestProviders_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.New(apperr.KindCentroidUnavailable, "no centroid known for zip 99999"), http.StatusServiceUnavailable},
		{apperr.New(apperr.KindQueryExecution, "query failed"), http.StatusInternalServerError},
		{apperr.New(apperr.KindInvalidRequest, "bad"), http.StatusBadRequest},
		{errors.New("opaque"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		rec := do(t, NewRouter(&fakeSearcher{err: c.err}, zerolog.Nop()), http.MethodGet, "/providers?zip=99999&radius_km=10", "")
		if rec.Code != c.want {
			t.Errorf("%v: status %d, want %d", c.err, rec.Code, c.want)
		}
		if detail(t, rec) == "" {
			t.Errorf("%v: missing detail", c.err)
		}
	}
}

func TestAsk_Decoding(t *testing.T) {
	fs := &fakeSearcher{}
	h := NewRouter(fs, zerolog.Nop())

	rec := do(t, h, http.MethodPost, "/ask", `{"question":"cheapest for DRG 470","include_sql":true,"zip":"10001","radius_km":5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	got := fs.asks[0]
	if got.Question != "cheapest for DRG 470" || !got.IncludeSQL || got.ZIP != "10001" || got.RadiusKm != 5 {
		t.Errorf("decoded request: %+v", got)
	}
	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["answer"] != "ok" {
		t.Errorf("body: %s", rec.Body.String())
	}
	if res, ok := body["results"].([]any); !ok || len(res) != 0 {
		t.Errorf("results should be an empty list: %s", rec.Body.String())
	}

	for _, bad := range []string{"", "{not json", `{"question": 5}`} {
		if rec := do(t, h, http.MethodPost, "/ask", bad); rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status %d", bad, rec.Code)
		}
	}
}

func TestHealthz(t *testing.T) {
	rec := do(t, NewRouter(&fakeSearcher{}, zerolog.Nop()), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("healthy: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, NewRouter(&fakeSearcher{pingErr: errors.New("connection refused")}, zerolog.Nop()), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unhealthy status: %d", rec.Code)
	}
	if d := detail(t, rec); d != "db_unavailable: connection refused" {
		t.Errorf("detail: %q", d)
	}
}

func TestRootRedirectAndApp(t *testing.T) {
	h := NewRouter(&fakeSearcher{}, zerolog.Nop())
	rec := do(t, h, http.MethodGet, "/", "")
	if rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("Location") != "/app/" {
		t.Errorf("redirect: %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = do(t, h, http.MethodGet, "/app/", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Hospital Cost Navigator") {
		t.Errorf("app page: %d", rec.Code)
	}
}
