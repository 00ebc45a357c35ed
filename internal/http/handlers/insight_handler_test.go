package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/florianhoeppner/catatlas-backend/internal/domain"
	"github.com/florianhoeppner/catatlas-backend/internal/services"
)

func TestGenerateInsight_Validation_And_NoSightings(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newHandlerDB(t)
	cat := &domain.Cat{}
	if err := db.Create(cat).Error; err != nil {
		t.Fatalf("seed cat: %v", err)
	}

	h := New(stubEntrySvc{}, stubMatchSvc{}, stubAnalysisSvc{}, stubCatSvc{}, services.NewInsightService(db), stubLocSvc{})
	r := gin.New()
	r.POST("/cats/:id/insights", h.GenerateInsight)

	// missing mode -> 400
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/cats/%d/insights", cat.ID), bytes.NewBufferString(`{}`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing mode -> %d", w.Code)
	}

	// invalid mode -> 400
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/cats/%d/insights", cat.ID), bytes.NewBufferString(`{"mode":"horoscope"}`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid mode -> %d", w.Code)
	}

	// unknown cat -> 404
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/cats/999/insights", bytes.NewBufferString(`{"mode":"profile"}`)))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown cat -> %d", w.Code)
	}

	// no sightings -> 400 invalid_state
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/cats/%d/insights", cat.ID), bytes.NewBufferString(`{"mode":"profile"}`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("no sightings -> %d body=%s", w.Code, w.Body.String())
	}
	var er ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &er)
	if er.Code != ErrCodeInvalidState {
		t.Fatalf("code = %q", er.Code)
	}
}

func TestGenerateInsight_GenerateThenReplay(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newHandlerDB(t)
	cat := &domain.Cat{}
	if err := db.Create(cat).Error; err != nil {
		t.Fatalf("seed cat: %v", err)
	}
	e := seedHandlerEntry(t, db, "Cat seen limping near the warehouse", "Warehouse")
	if err := db.Model(&domain.Entry{}).Where("id = ?", e.ID).Update("cat_id", cat.ID).Error; err != nil {
		t.Fatalf("assign: %v", err)
	}

	h := New(stubEntrySvc{}, stubMatchSvc{}, stubAnalysisSvc{}, stubCatSvc{}, services.NewInsightService(db), stubLocSvc{})
	r := gin.New()
	r.POST("/cats/:id/insights", h.GenerateInsight)

	url := fmt.Sprintf("/cats/%d/insights", cat.ID)

	// first call generates
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, url, bytes.NewBufferString(`{"mode":"risk"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("generate -> %d body=%s", w.Code, w.Body.String())
	}
	var first InsightResponse
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatalf("json: %v", err)
	}
	if first.Cached {
		t.Fatal("first insight must not be cached")
	}
	if first.Insight == nil || first.Insight.Mode != "risk" {
		t.Fatalf("insight missing: %#v", first.Insight)
	}
	if first.ContextHash == "" {
		t.Fatal("context hash missing")
	}

	// limping sighting should surface an injury flag
	foundFlag := false
	for _, f := range first.Insight.Flags {
		if f == "possible injury (limping mentioned)" {
			foundFlag = true
		}
	}
	if !foundFlag {
		t.Fatalf("expected injury flag, got %v", first.Insight.Flags)
	}

	// second call replays from cache with the same hash
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, url, bytes.NewBufferString(`{"mode":"risk"}`)))
	var second InsightResponse
	_ = json.Unmarshal(w.Body.Bytes(), &second)
	if !second.Cached {
		t.Fatal("second insight should be cached")
	}
	if second.ContextHash != first.ContextHash {
		t.Fatalf("hash changed: %q vs %q", second.ContextHash, first.ContextHash)
	}

	// a different mode generates independently
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, url, bytes.NewBufferString(`{"mode":"care"}`)))
	var care InsightResponse
	_ = json.Unmarshal(w.Body.Bytes(), &care)
	if care.Cached {
		t.Fatal("new mode must not be cached")
	}
}
