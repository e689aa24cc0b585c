package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-dashboard-api/internal/middleware"
	"github.com/noah-isme/school-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/school-dashboard-api/pkg/errors"
)

type fakeMutationSrv struct {
	result  models.MutationResult
	err     error
	record  json.RawMessage
	kind    models.EntityKind
	id      string
	payload string
	actor   *models.Actor
}

func (f *fakeMutationSrv) Create(_ context.Context, actor *models.Actor, kind models.EntityKind, payload []byte) (models.MutationResult, error) {
	f.actor, f.kind, f.payload = actor, kind, string(payload)
	return f.result, f.err
}

func (f *fakeMutationSrv) Update(_ context.Context, actor *models.Actor, kind models.EntityKind, id string, payload []byte) (models.MutationResult, error) {
	f.actor, f.kind, f.id, f.payload = actor, kind, id, string(payload)
	return f.result, f.err
}

func (f *fakeMutationSrv) Delete(_ context.Context, actor *models.Actor, kind models.EntityKind, id string) (models.MutationResult, error) {
	f.actor, f.kind, f.id = actor, kind, id
	return f.result, f.err
}

func (f *fakeMutationSrv) Get(_ context.Context, kind models.EntityKind, id string) (json.RawMessage, error) {
	f.kind, f.id = kind, id
	return f.record, f.err
}

func mutationContext(method, target, body string, params gin.Params) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	c.Params = params
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin_1", Role: models.RoleAdmin})
	return c, rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) models.MutationResult {
	t.Helper()
	var result models.MutationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func TestMutationHandlerCreate(t *testing.T) {
	srv := &fakeMutationSrv{result: models.Succeeded("user_1")}
	handler := NewMutationHandler(srv)

	c, rec := mutationContext(http.MethodPost, "/api/v1/teachers", `{"username":"t"}`, gin.Params{{Key: "entity", Value: "teachers"}})
	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, models.EntityTeacher, srv.kind)
	assert.Equal(t, `{"username":"t"}`, srv.payload)
	assert.Equal(t, &models.Actor{ID: "admin_1", Role: models.RoleAdmin}, srv.actor)
	assert.Equal(t, models.MutationResult{Success: true, ID: "user_1"}, decodeResult(t, rec))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestMutationHandlerFailureStatus(t *testing.T) {
	srv := &fakeMutationSrv{
		result: models.Failed("Cannot delete teacher who is supervising classes. Please reassign classes first."),
		err:    appErrors.Clone(appErrors.ErrIntegrity, "blocked"),
	}
	handler := NewMutationHandler(srv)

	c, rec := mutationContext(http.MethodDelete, "/api/v1/teachers/user_1", "", gin.Params{{Key: "entity", Value: "teachers"}, {Key: "id", Value: "user_1"}})
	handler.Delete(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	result := decodeResult(t, rec)
	assert.True(t, result.Error)
	assert.Equal(t, "Cannot delete teacher who is supervising classes. Please reassign classes first.", result.Message)
	assert.Equal(t, "user_1", srv.id)
}

func TestMutationHandlerPassesUnknownKindToService(t *testing.T) {
	srv := &fakeMutationSrv{result: models.Failed(`Unknown entity type "dragons"`), err: appErrors.ErrNotFound}
	handler := NewMutationHandler(srv)

	c, rec := mutationContext(http.MethodPut, "/api/v1/dragons/1", `{}`, gin.Params{{Key: "entity", Value: "dragons"}, {Key: "id", Value: "1"}})
	handler.Update(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, models.EntityKind("dragons"), srv.kind)
}

func TestMutationHandlerUntypedErrorIsInternal(t *testing.T) {
	srv := &fakeMutationSrv{result: models.Failed("An unexpected error occurred. Please try again."), err: errors.New("boom")}
	handler := NewMutationHandler(srv)

	c, rec := mutationContext(http.MethodPost, "/api/v1/classes", `{}`, gin.Params{{Key: "entity", Value: "classes"}})
	handler.Create(c)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMutationHandlerGet(t *testing.T) {
	srv := &fakeMutationSrv{record: json.RawMessage(`{"id":3,"name":"1A"}`)}
	handler := NewMutationHandler(srv)

	c, rec := mutationContext(http.MethodGet, "/api/v1/classes/3", "", gin.Params{{Key: "entity", Value: "classes"}, {Key: "id", Value: "3"}})
	handler.Get(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"id":3,"name":"1A"}}`, rec.Body.String())
	assert.Equal(t, models.EntityClass, srv.kind)

	c, rec = mutationContext(http.MethodGet, "/api/v1/dragons/3", "", gin.Params{{Key: "entity", Value: "dragons"}, {Key: "id", Value: "3"}})
	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMetricsHandler(nil, map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
	handler.Ready(c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"connection refused"`)
	assert.Contains(t, rec.Body.String(), `"postgres":"ok"`)
}

type fakeAuthSrv struct {
	resp *models.LoginResponse
	err  error
}

func (f fakeAuthSrv) Login(context.Context, models.LoginRequest) (*models.LoginResponse, error) {
	return f.resp, f.err
}

func TestAuthHandlerLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(fakeAuthSrv{err: appErrors.ErrInvalidCredentials})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"amy","password":"x"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	handler.Login(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`not json`))
	handler.Login(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandlerMe(t *testing.T) {
	c, rec := mutationContext(http.MethodGet, "/auth/me", "", nil)
	NewAuthHandler(fakeAuthSrv{}).Me(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"admin"`)
}
