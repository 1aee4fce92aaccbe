package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BrightFrames/tapx-go/internal/application/container"
	"github.com/BrightFrames/tapx-go/internal/domain/catalog"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/logging"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/database"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/security"
)

func setupTestAPI(t *testing.T) (*gin.Engine, *container.Container) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToConsole: true,
		DefaultLevel:    slog.LevelError,
		ChannelLevels:   map[logging.Channel]slog.Level{},
	})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.NewTableCreator().CreateSchema(db); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	c := container.NewContainer(db, logger)
	return SetupRoutes(c), c
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func seedAPIBlock(t *testing.T, c *container.Container, profileID string) *catalog.Block {
	t.Helper()
	b := &catalog.Block{
		ID:        security.GenerateULID(),
		ProfileID: profileID,
		BlockType: "product",
		Title:     "Prints",
		CTAType:   "buy_now",
		CreatedAt: time.Now().UTC(),
	}
	if err := c.BlockRepo.Create(b); err != nil {
		t.Fatalf("seed block: %v", err)
	}
	return b
}

func TestIntentEndpointLifecycle(t *testing.T) {
	r, c := setupTestAPI(t)

	signup := decodeBody(t, doJSON(t, r, http.MethodPost, "/api/v1/auth/signup", "", gin.H{
		"email":    "seller@example.com",
		"password": "s3cret",
		"username": "seller",
	}))
	token, _ := signup["token"].(string)
	if token == "" {
		t.Fatalf("signup response = %v, want token", signup)
	}
	profile := signup["profile"].(map[string]any)
	profileID := profile["profile_id"].(string)

	block := seedAPIBlock(t, c, profileID)

	w := doJSON(t, r, http.MethodPost, "/api/v1/intents", "", gin.H{
		"profile_id":          profileID,
		"block_id":            block.ID,
		"visitor_fingerprint": "fp-1",
		"session_id":          "sess-1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create intent status = %d, body %s", w.Code, w.Body.String())
	}
	created := decodeBody(t, w)
	intentID, _ := created["intent_id"].(string)
	if intentID == "" || created["flow_type"] != "buy" {
		t.Fatalf("create response = %v, want buy intent with id", created)
	}

	// Lifecycle transitions need a token.
	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/v1/intents/%s/complete", intentID), "", gin.H{})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated complete status = %d, want 401", w.Code)
	}

	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/v1/intents/%s/complete", intentID), token, gin.H{
		"linked_order_id": "order-1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("complete status = %d, body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/intents?profile_id="+profileID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, body %s", w.Code, w.Body.String())
	}
	listing := decodeBody(t, w)
	if listing["count"] != float64(1) {
		t.Errorf("count = %v, want 1", listing["count"])
	}
}

func TestIntentEndpointRejections(t *testing.T) {
	r, _ := setupTestAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/intents", "", gin.H{"block_id": "b"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing profile_id status = %d, want 400", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/blocks/missing", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown block status = %d, want 404", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/intents", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated list status = %d, want 401", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/intents", "garbage-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token list status = %d, want 401", w.Code)
	}
}

func TestTrackAndSessionEndpoints(t *testing.T) {
	r, _ := setupTestAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/journey/track", "", gin.H{
		"session_id": "sess-1",
		"profile_id": "profile-1",
		"event_type": "link_click",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("track status = %d, body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/journey/track", "", gin.H{
		"session_id": "sess-1",
		"profile_id": "profile-1",
		"event_type": "teleport",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid event type status = %d, want 400", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/journey/session/sess-1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("session journey status = %d, body %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	events, _ := body["events"].([]any)
	if len(events) != 1 {
		t.Errorf("events = %v, want 1 entry", body["events"])
	}
}

func TestDBStatusEndpoint(t *testing.T) {
	r, _ := setupTestAPI(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/db/status", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["status"] != "ok" {
		t.Errorf("body = %v, want status ok", body)
	}
}

func TestOTPEndpoints(t *testing.T) {
	r, c := setupTestAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/signup", "", gin.H{
		"email": "seller@example.com", "password": "s3cret", "username": "seller",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/otp", "", gin.H{"email": "seller@example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("otp request status = %d, body %s", w.Code, w.Body.String())
	}
	if body := decodeBody(t, w); body["code"] != nil {
		t.Fatalf("otp response leaked the code: %v", body)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/otp", "", gin.H{"email": ""})
	if w.Code != http.StatusBadRequest {
		t.Errorf("otp request without email status = %d, want 400", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/otp/verify", "", gin.H{
		"email": "seller@example.com", "code": "not-the-code",
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("verify with wrong code status = %d, want 403", w.Code)
	}

	code, err := c.AuthService.IssueOTP("seller@example.com")
	if err != nil {
		t.Fatalf("issue otp: %v", err)
	}
	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/otp/verify", "", gin.H{
		"email": "seller@example.com", "code": code,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("verify status = %d, body %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("verify body = %v, want a token", body)
	}
	claims, err := c.AuthService.Decode(token)
	if err != nil {
		t.Fatalf("decode issued token: %v", err)
	}
	if claims.Email != "seller@example.com" {
		t.Errorf("claims email = %q", claims.Email)
	}
}
