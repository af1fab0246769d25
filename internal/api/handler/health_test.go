package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestHealthHandler_Liveness(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/health", "")

	if err := NewHealthHandler().Liveness(c); err != nil {
		t.Fatalf("liveness: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadinessHandler_Readiness(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("mongo up, redis disabled", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		c, rec := newContext(http.MethodGet, "/health/ready", "")

		if err := NewReadinessHandler(mt.DB, nil).Readiness(c); err != nil {
			t.Fatalf("readiness: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var body readinessResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Status != "ok" || body.Dependencies["redis"].Status != "disabled" {
			t.Fatalf("unexpected body: %+v", body)
		}
	})

	mt.Run("mongo down", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 13, Message: "not authorized", Name: "Unauthorized",
		}))
		c, rec := newContext(http.MethodGet, "/health/ready", "")

		if err := NewReadinessHandler(mt.DB, nil).Readiness(c); err != nil {
			t.Fatalf("readiness: %v", err)
		}
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}

		var body readinessResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Status != "degraded" || body.Dependencies["mongodb"].Status != "unhealthy" {
			t.Fatalf("unexpected body: %+v", body)
		}
	})
}
