package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tyrefleet/backend/internal/infrastructure/auth"
	"github.com/tyrefleet/backend/internal/infrastructure/config"
	"github.com/tyrefleet/backend/internal/infrastructure/logger"
	"github.com/tyrefleet/backend/internal/interfaces/http/dto"
	"github.com/tyrefleet/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type registrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// testAPI serves one handler behind the production auth chain
type testAPI struct {
	t        *testing.T
	engine   *gin.Engine
	verifier *auth.Verifier
	actorID  uuid.UUID
}

func newTestAPI(t *testing.T, h registrar) *testAPI {
	t.Helper()
	verifier := auth.NewVerifier(config.JWTConfig{Secret: "handler-test-secret-0123456789abcdef", Issuer: "test"})
	engine := gin.New()
	engine.Use(logger.RequestID(), logger.GinMiddleware(zap.NewNop()))
	h.RegisterRoutes(engine.Group("/api/v1", middleware.Auth(verifier)))
	return &testAPI{t: t, engine: engine, verifier: verifier, actorID: uuid.New()}
}

func (a *testAPI) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token, err := a.verifier.Sign(a.actorID, "tester", time.Minute)
	require.NoError(a.t, err)
	req.Header.Set(middleware.AuthHeaderKey, middleware.BearerPrefix+token)

	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals the envelope and, when out is non-nil, its data
func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) dto.Response {
	t.Helper()
	var envelope struct {
		dto.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, out))
	}
	return envelope.Response
}
