package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/andreiashu/tripgeo"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	r, err := tripgeo.New(tripgeo.WithOffline())
	if err != nil {
		t.Fatalf("tripgeo.New: %v", err)
	}
	return NewRouter(r, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	router.ServeHTTP(w, req)
	return w
}

func decodePlaces(t *testing.T, w *httptest.ResponseRecorder) PlacesOutput {
	t.Helper()
	var out PlacesOutput
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding %q: %v", w.Body.String(), err)
	}
	return out
}

func TestPing(t *testing.T) {
	w := get(t, newTestRouter(t), "/ping")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "pong") {
		t.Errorf("GET /ping = %d %s", w.Code, w.Body.String())
	}
}

func TestResolveEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := get(t, router, "/places?q="+url.QueryEscape("tokyo")+"&limit=3")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	out := decodePlaces(t, w)
	if out.State != "FALLBACK_ONLY" {
		t.Errorf("state = %q", out.State)
	}
	if len(out.Places) == 0 || len(out.Places) > 3 || out.Places[0].Name != "도쿄" {
		t.Errorf("places = %+v", out.Places)
	}
	if out.Places[0].Coordinates == nil || out.Places[0].Kind != tripgeo.KindCity {
		t.Errorf("first place = %+v", out.Places[0])
	}

	w = get(t, router, "/places?q=zzzzqqq")
	if out := decodePlaces(t, w); out.Places == nil || len(out.Places) != 0 {
		t.Errorf("unknown query = %s", w.Body.String())
	}
}

func TestResolveEndpointValidation(t *testing.T) {
	router := newTestRouter(t)
	for _, target := range []string{
		"/places?q=seoul&limit=0x",
		"/places?q=seoul&limit=500",
		"/places?q=seoul&lat=91&lon=0",
		"/places?q=seoul&lat=abc&lon=0",
	} {
		if w := get(t, router, target); w.Code != http.StatusBadRequest {
			t.Errorf("GET %s = %d, want 400", target, w.Code)
		}
	}
}

func TestAutocompleteEndpoint(t *testing.T) {
	router := newTestRouter(t)

	out := decodePlaces(t, get(t, router, "/places/autocomplete?q="+url.QueryEscape("서")))
	if out.Places == nil || len(out.Places) != 0 {
		t.Errorf("single rune prefix = %+v", out.Places)
	}

	out = decodePlaces(t, get(t, router, "/places/autocomplete?q="+url.QueryEscape("도쿄")))
	if len(out.Places) == 0 || out.Places[0].Name != "도쿄" {
		t.Errorf("places = %+v", out.Places)
	}
}

func TestPopularEndpoint(t *testing.T) {
	out := decodePlaces(t, get(t, newTestRouter(t), "/places/popular"))
	if len(out.Places) != tripgeo.DefaultPopularCount {
		t.Errorf("got %d popular places", len(out.Places))
	}
}

func TestNearbyEndpoint(t *testing.T) {
	router := newTestRouter(t)

	if w := get(t, router, "/places/nearby?q=seoul"); w.Code != http.StatusBadRequest {
		t.Errorf("missing coordinates = %d, want 400", w.Code)
	}

	out := decodePlaces(t, get(t, router, "/places/nearby?lat=35.6762&lon=139.6503&limit=2"))
	if len(out.Places) != 2 || out.Places[0].Name != "도쿄" {
		t.Errorf("places = %+v", out.Places)
	}
}

func TestReverseEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := get(t, router, "/places/reverse?lat=48.86&lon=2.35")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var p tripgeo.Place
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.Name != "파리" {
		t.Errorf("place = %+v", p)
	}

	if w := get(t, router, "/places/reverse?lat=0&lon=-160"); w.Code != http.StatusNotFound {
		t.Errorf("ocean = %d, want 404", w.Code)
	}
}

func TestQuotaEndpoint(t *testing.T) {
	w := get(t, newTestRouter(t), "/quota")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Quota tripgeo.QuotaStats `json:"quota"`
		State string             `json:"state"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Quota.Disabled || body.State != "FALLBACK_ONLY" {
		t.Errorf("body = %+v", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)
	get(t, router, "/places?q=paris")

	w := get(t, router, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	for _, want := range []string{
		"tripgeo_quota_disabled 1",
		`tripgeo_answers_total{source="fallback"} 1`,
	} {
		if !strings.Contains(w.Body.String(), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
