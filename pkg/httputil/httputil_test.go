package httputil_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cwrk-planet/chatcord/pkg/httputil"
	"github.com/cwrk-planet/chatcord/pkg/logger"
)

func TestError_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	httputil.Error(rec, http.StatusNotFound, "Room not found", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Message != "Room not found" {
		t.Fatalf("message = %q", body.Error.Message)
	}
}

func TestData_ExtraFields(t *testing.T) {
	rec := httptest.NewRecorder()
	httputil.Data(rec, http.StatusCreated, map[string]int{"id": 1}, map[string]any{"method": "fallback"})

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["method"] != "fallback" || body["data"] == nil {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestMiddlewareRequestID(t *testing.T) {
	var seen string
	h := httputil.MiddlewareRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = httputil.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(httputil.HeaderRequestID, "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "abc" || rec.Header().Get(httputil.HeaderRequestID) != "abc" {
		t.Fatalf("request id not propagated: ctx=%q header=%q", seen, rec.Header().Get(httputil.HeaderRequestID))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || seen == "abc" {
		t.Fatalf("expected generated request id, got %q", seen)
	}
}

func TestMiddlewareRequestID_RejectsUnsafeIDs(t *testing.T) {
	var seen string
	h := httputil.MiddlewareRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = httputil.FromContext(r.Context())
	}))

	for _, bad := range []string{"a b", "id\nforged=1", strings.Repeat("x", 65)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(httputil.HeaderRequestID, bad)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if seen == bad || len(seen) != 36 {
			t.Fatalf("unsafe id %q kept as %q", bad, seen)
		}
		if rec.Header().Get(httputil.HeaderRequestID) != seen {
			t.Fatalf("response header %q != ctx %q", rec.Header().Get(httputil.HeaderRequestID), seen)
		}
	}

	if attr := httputil.ReqIDAttr(context.Background()); attr.Key != "req_id" || attr.Value.String() != "" {
		t.Fatalf("attr without middleware = %v", attr)
	}
}

func TestMiddlewareLogging_PassesThrough(t *testing.T) {
	h := httputil.MiddlewareLogging(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("tea"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusTeapot || rec.Body.String() != "tea" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}
