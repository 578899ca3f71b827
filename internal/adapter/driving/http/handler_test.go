package httphandler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ericfisherdev/credvault/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/credvault/internal/adapter/driven/staging"
	"github.com/ericfisherdev/credvault/internal/adapter/driven/xlsx"
	httphandler "github.com/ericfisherdev/credvault/internal/adapter/driving/http"
	"github.com/ericfisherdev/credvault/internal/application"
	"github.com/ericfisherdev/credvault/internal/metrics"
	"github.com/ericfisherdev/credvault/internal/secret"
)

const (
	testJWTSecret     = "handler-test-jwt-secret"
	testEncryptionKey = "credential-encryption-key-32chars"
)

// --- Test helpers ---

type testServer struct {
	mux   http.Handler
	token string
}

// setupServer wires the full stack against a temporary SQLite file and
// staging directory.
func setupServer(t *testing.T, development bool) testServer {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	db, err := sqlite.NewDB(ctx, filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = sqlite.RunMigrations(db.Writer)
	require.NoError(t, err)

	box, err := secret.NewBox(testEncryptionKey)
	require.NoError(t, err)

	store, err := staging.NewStore(filepath.Join(t.TempDir(), "exports"))
	require.NoError(t, err)
	purger, err := staging.NewPurger(store, 0, time.Hour, logger)
	require.NoError(t, err)
	require.NoError(t, purger.Start())
	t.Cleanup(func() { _ = purger.Shutdown() })

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	credentialRepo := sqlite.NewCredentialRepo(db, box)
	directoryRepo := sqlite.NewDirectoryRepo(db)
	auditor := application.NewAuditor(sqlite.NewAuditRepo(db), logger)

	h := httphandler.NewHandler(
		application.NewCredentialService(credentialRepo, directoryRepo, auditor, logger),
		application.NewDirectoryService(directoryRepo, auditor),
		application.NewExportService(credentialRepo, xlsx.NewRenderer("credvault"), store, purger, box, auditor, m, logger, 12),
		auditor,
		box,
		logger,
		development,
	)

	return testServer{
		mux:   httphandler.NewServeMux(h, httphandler.NewAuthenticator(testJWTSecret), reg, m, logger),
		token: signToken(t, testJWTSecret, jwt.SigningMethodHS256, "7"),
	}
}

func signToken(t *testing.T, key string, method jwt.SigningMethod, sub string) string {
	t.Helper()

	token, err := jwt.NewWithClaims(method, jwt.MapClaims{
		"sub":  sub,
		"name": "Pat Auditor",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func (s testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("User-Agent", "handler-test")
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

// as returns a copy of s that authenticates as the actor with the given sub.
func (s testServer) as(t *testing.T, sub string) testServer {
	t.Helper()
	s.token = signToken(t, testJWTSecret, jwt.SigningMethodHS256, sub)
	return s
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	err := json.NewDecoder(rec.Body).Decode(v)
	require.NoError(t, err)
}

// seed creates a client and a platform and returns their ids.
func (s testServer) seed(t *testing.T, clientName string) (clientID, platformID float64) {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/api/v1/clients", map[string]any{
		"name": clientName, "contact_person": "Pat", "email": "pat@example.com", "phone": "555-0100",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var client map[string]any
	decodeJSON(t, rec, &client)

	rec = s.do(t, http.MethodPost, "/api/v1/platforms", map[string]any{"name": "GitHub", "url": "https://github.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var platform map[string]any
	decodeJSON(t, rec, &platform)

	return client["id"].(float64), platform["id"].(float64)
}

func (s testServer) createCredential(t *testing.T, clientID, platformID float64, account string) map[string]any {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/api/v1/credentials", map[string]any{
		"client_id":    clientID,
		"platform_id":  platformID,
		"account_name": account,
		"username":     account + "-user",
		"password":     account + "-pass",
		"expiry_date":  "2027-01-31",
		"additional_fields": []map[string]string{
			{"name": "a", "value": "1"},
			{"name": "b", "value": "2"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var cred map[string]any
	decodeJSON(t, rec, &cred)
	return cred
}

// --- Tests ---

func TestHealth_NoAuthRequired(t *testing.T) {
	s := setupServer(t, false)

	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "ok", resp["status"])
}

func TestAuth(t *testing.T) {
	s := setupServer(t, false)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not bearer", header: "Basic abc"},
		{name: "wrong secret", header: "Bearer " + signToken(t, "other-secret", jwt.SigningMethodHS256, "7")},
		{name: "wrong algorithm", header: "Bearer " + signToken(t, testJWTSecret, jwt.SigningMethodHS512, "7")},
		{name: "non-numeric subject", header: "Bearer " + signToken(t, testJWTSecret, jwt.SigningMethodHS256, "pat")},
		{name: "garbage", header: "Bearer not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/credentials", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.mux.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			var resp map[string]any
			decodeJSON(t, rec, &resp)
			assert.Equal(t, "error", resp["status"])
			assert.Equal(t, "unauthorized", resp["category"])
		})
	}
}

func TestCredentialLifecycle(t *testing.T) {
	s := setupServer(t, false)
	clientID, platformID := s.seed(t, "Acme")

	created := s.createCredential(t, clientID, platformID, "ops")
	id := int64(created["id"].(float64))
	path := "/api/v1/credentials/" + jsonNumber(id)

	assert.Equal(t, "ops-user", created["username"])
	assert.Equal(t, "ops-pass", created["password"])
	assert.Equal(t, "Acme", created["client_name"])
	assert.Equal(t, "2027-01-31", created["expiry_date"])
	assert.Equal(t, float64(7), created["created_by"])

	rec := s.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	decodeJSON(t, rec, &got)
	assert.NotEmpty(t, got["last_used"])
	assert.Len(t, got["additional_fields"], 2)

	rec = s.do(t, http.MethodPut, path, map[string]any{
		"password":          "rotated",
		"additional_fields": []map[string]string{{"name": "c", "value": "3"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated map[string]any
	decodeJSON(t, rec, &updated)
	assert.Equal(t, "rotated", updated["password"])
	assert.Equal(t, "ops-user", updated["username"])
	assert.Equal(t, []any{map[string]any{"name": "c", "value": "3"}}, updated["additional_fields"])

	rec = s.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/credentials", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	decodeJSON(t, rec, &list)
	assert.Empty(t, list)

	rec = s.do(t, http.MethodGet, "/api/v1/credentials?include_inactive=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeJSON(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, false, list[0]["is_active"])
	assert.Equal(t, "rotated", list[0]["password"])
}

func TestCreateCredential_Errors(t *testing.T) {
	s := setupServer(t, false)
	clientID, platformID := s.seed(t, "Acme")

	tests := []struct {
		name         string
		body         any
		wantStatus   int
		wantCategory string
	}{
		{
			name:         "missing password",
			body:         map[string]any{"client_id": clientID, "platform_id": platformID, "account_name": "x", "username": "u"},
			wantStatus:   http.StatusBadRequest,
			wantCategory: "validation",
		},
		{
			name:         "unknown client",
			body:         map[string]any{"client_id": 999, "platform_id": platformID, "account_name": "x", "username": "u", "password": "p"},
			wantStatus:   http.StatusUnprocessableEntity,
			wantCategory: "reference",
		},
		{
			name:         "bad expiry date",
			body:         map[string]any{"client_id": clientID, "platform_id": platformID, "account_name": "x", "username": "u", "password": "p", "expiry_date": "31/01/2027"},
			wantStatus:   http.StatusBadRequest,
			wantCategory: "validation",
		},
		{
			name:         "unknown json field",
			body:         map[string]any{"client_id": clientID, "owner": "me"},
			wantStatus:   http.StatusBadRequest,
			wantCategory: "validation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/v1/credentials", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp map[string]any
			decodeJSON(t, rec, &resp)
			assert.Equal(t, tt.wantCategory, resp["category"])
			assert.NotContains(t, resp, "error", "raw detail is development-only")
		})
	}
}

func TestGetCredential_NotFound(t *testing.T) {
	tests := []struct {
		name        string
		development bool
	}{
		{name: "production hides detail", development: false},
		{name: "development shows detail", development: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupServer(t, tt.development)

			rec := s.do(t, http.MethodGet, "/api/v1/credentials/404", nil)
			assert.Equal(t, http.StatusNotFound, rec.Code)

			var resp map[string]any
			decodeJSON(t, rec, &resp)
			assert.Equal(t, "not_found", resp["category"])
			_, hasDetail := resp["error"]
			assert.Equal(t, tt.development, hasDetail)
		})
	}
}

func TestExport_EmptyResult(t *testing.T) {
	s := setupServer(t, false)

	rec := s.do(t, http.MethodPost, "/api/v1/exports", map[string]any{"export_type": "credentials"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp map[string]any
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "empty_result", resp["category"])
}

func TestExport_CreateDownloadAndPurge(t *testing.T) {
	s := setupServer(t, false)
	acmeID, platformID := s.seed(t, "A/B:C?D")
	s.createCredential(t, acmeID, platformID, "ops")
	s.createCredential(t, acmeID, platformID, "billing")

	rec := s.do(t, http.MethodPost, "/api/v1/exports", map[string]any{"export_type": "client_credentials"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var export map[string]any
	decodeJSON(t, rec, &export)
	password := export["password"].(string)
	filename := export["filename"].(string)
	assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9]{12}$`), password)
	assert.Regexp(t, regexp.MustCompile(`^client_credentials_export_\d{8}_\d{6}_[0-9a-f]{8}\.xlsx$`), filename)
	assert.Equal(t, float64(2), export["record_count"])
	assert.Equal(t, []any{"Summary", "A_B_C_D"}, export["sheets"])
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = s.do(t, http.MethodGet, export["download_url"].(string), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), filename)

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	assert.Equal(t, []string{"Summary", "A_B_C_D"}, f.GetSheetList())
	// Six preamble rows and the header precede the data; Password is column E.
	firstPassword, err := f.GetCellValue("A_B_C_D", "E8")
	require.NoError(t, err)
	assert.Equal(t, "billing-pass", firstPassword)
	for _, sheet := range f.GetSheetList() {
		assert.ErrorIs(t, f.UnprotectSheet(sheet, "wrong"), excelize.ErrUnprotectSheetPassword)
	}

	require.Eventually(t, func() bool {
		return s.do(t, http.MethodGet, export["download_url"].(string), nil).Code == http.StatusNotFound
	}, 2*time.Second, 20*time.Millisecond, "delivered export is purged")

	rec = s.do(t, http.MethodGet, "/api/v1/exports/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history map[string]any
	decodeJSON(t, rec, &history)
	assert.Equal(t, float64(1), history["total"])
	items := history["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, filename, item["file_name"])
	assert.Equal(t, float64(7), item["user_id"])
	assert.NotContains(t, rec.Body.String(), password)
}

func TestExport_DownloadRestrictedToCreator(t *testing.T) {
	s := setupServer(t, false)
	clientID, platformID := s.seed(t, "Acme")
	s.createCredential(t, clientID, platformID, "ops")

	rec := s.do(t, http.MethodPost, "/api/v1/exports", map[string]any{"export_type": "credentials"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var export map[string]any
	decodeJSON(t, rec, &export)
	downloadURL := export["download_url"].(string)

	rec = s.as(t, "99").do(t, http.MethodGet, downloadURL, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
	var resp map[string]any
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "not_found", resp["category"])

	rec = s.do(t, http.MethodGet, downloadURL, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "a refused attempt does not purge the owner's file")
}

func TestExport_InvalidFilename(t *testing.T) {
	s := setupServer(t, false)

	for _, name := range []string{"passwd", "credentials_export_x.xlsx", "CREDENTIALS_export_20260101_000000_deadbeef.xlsx"} {
		rec := s.do(t, http.MethodGet, "/api/v1/exports/"+name, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

func TestGeneratePassword(t *testing.T) {
	s := setupServer(t, false)

	rec := s.do(t, http.MethodPost, "/api/v1/passwords", map[string]any{
		"length": 20, "uppercase": false, "numbers": false, "symbols": false,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	decodeJSON(t, rec, &resp)
	assert.Regexp(t, regexp.MustCompile(`^[a-z]{20}$`), resp["password"])

	rec = s.do(t, http.MethodPost, "/api/v1/passwords", map[string]any{
		"lowercase": false, "uppercase": false, "numbers": false, "symbols": false,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/passwords", map[string]any{"length": 1000})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupServer(t, false)

	s.do(t, http.MethodGet, "/api/v1/health", nil)

	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `credvault_http_requests_total{method="GET",route="GET /api/v1/health",status="200"} 1`)
}

func jsonNumber(id int64) string {
	data, _ := json.Marshal(id)
	return string(data)
}

func TestUpdateCredential_ClearExpiryDate(t *testing.T) {
	s := setupServer(t, false)
	clientID, platformID := s.seed(t, "Acme")
	created := s.createCredential(t, clientID, platformID, "ops")
	path := "/api/v1/credentials/" + jsonNumber(int64(created["id"].(float64)))

	rec := s.do(t, http.MethodPut, path, map[string]any{"notes": "rotated"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var kept map[string]any
	decodeJSON(t, rec, &kept)
	assert.Equal(t, "2027-01-31", kept["expiry_date"])

	rec = s.do(t, http.MethodPut, path, map[string]any{"expiry_date": ""})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cleared map[string]any
	decodeJSON(t, rec, &cleared)
	assert.NotContains(t, cleared, "expiry_date")

	rec = s.do(t, http.MethodPut, path, map[string]any{"expiry_date": "31/01/2027"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClientLifecycle(t *testing.T) {
	s := setupServer(t, false)
	clientID, _ := s.seed(t, "Acme")
	path := "/api/v1/clients/" + jsonNumber(int64(clientID))

	rec := s.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var client map[string]any
	decodeJSON(t, rec, &client)
	assert.Equal(t, "Acme", client["name"])
	assert.Equal(t, true, client["is_active"])

	rec = s.do(t, http.MethodPut, path, map[string]any{"name": "Acme Corp", "phone": "555-0199"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeJSON(t, rec, &client)
	assert.Equal(t, "Acme Corp", client["name"])
	assert.Equal(t, "555-0199", client["phone"])
	assert.Equal(t, "pat@example.com", client["email"])

	rec = s.do(t, http.MethodPut, path, map[string]any{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeJSON(t, rec, &client)
	assert.Equal(t, false, client["is_active"])

	rec = s.do(t, http.MethodGet, "/api/v1/activity?entity_type=client&action=delete", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var activity []map[string]any
	decodeJSON(t, rec, &activity)
	require.Len(t, activity, 1)
	assert.Equal(t, clientID, activity[0]["entity_id"])

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		var body any
		if method == http.MethodPut {
			body = map[string]any{"name": "x"}
		}
		rec = s.do(t, method, "/api/v1/clients/404", body)
		assert.Equal(t, http.StatusNotFound, rec.Code, method)
	}
}

func TestPlatformLifecycle(t *testing.T) {
	s := setupServer(t, false)
	clientID, usedID := s.seed(t, "Acme")
	s.createCredential(t, clientID, usedID, "ops")

	rec := s.do(t, http.MethodDelete, "/api/v1/platforms/"+jsonNumber(int64(usedID)), nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	var resp map[string]any
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "conflict", resp["category"])

	rec = s.do(t, http.MethodPost, "/api/v1/platform-categories", map[string]any{"name": "vcs"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var category map[string]any
	decodeJSON(t, rec, &category)
	categoryID := category["id"].(float64)

	rec = s.do(t, http.MethodPost, "/api/v1/platforms", map[string]any{"name": "Bitbucket"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var platform map[string]any
	decodeJSON(t, rec, &platform)
	path := "/api/v1/platforms/" + jsonNumber(int64(platform["id"].(float64)))

	rec = s.do(t, http.MethodPut, path, map[string]any{"category_id": categoryID, "url": "https://bitbucket.org"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeJSON(t, rec, &platform)
	assert.Equal(t, categoryID, platform["category_id"])
	assert.Equal(t, "https://bitbucket.org", platform["url"])

	rec = s.do(t, http.MethodPut, path, map[string]any{"category_id": 999})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodPut, path, map[string]any{"category_id": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	platform = map[string]any{}
	decodeJSON(t, rec, &platform)
	assert.NotContains(t, platform, "category_id")

	rec = s.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlatformCategories(t *testing.T) {
	s := setupServer(t, false)

	var ids []float64
	for _, name := range []string{"social", "Hosting"} {
		rec := s.do(t, http.MethodPost, "/api/v1/platform-categories", map[string]any{"name": name})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var category map[string]any
		decodeJSON(t, rec, &category)
		ids = append(ids, category["id"].(float64))
	}

	rec := s.do(t, http.MethodGet, "/api/v1/platform-categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	decodeJSON(t, rec, &list)
	require.Len(t, list, 2)
	assert.Equal(t, "Hosting", list[0]["name"])

	rec = s.do(t, http.MethodGet, "/api/v1/platform-categories/"+jsonNumber(int64(ids[0])), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var category map[string]any
	decodeJSON(t, rec, &category)
	assert.Equal(t, "social", category["name"])

	rec = s.do(t, http.MethodGet, "/api/v1/platform-categories/404", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/activity?entity_type=platform_category", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var activity []map[string]any
	decodeJSON(t, rec, &activity)
	require.Len(t, activity, 2)
	assert.Equal(t, ids[1], activity[0]["entity_id"], "newest first")
	assert.Equal(t, "create", activity[0]["action_type"])
	assert.Equal(t, float64(7), activity[0]["user_id"])
}

func TestListActivity(t *testing.T) {
	s := setupServer(t, false)
	clientID, platformID := s.seed(t, "Acme")
	created := s.createCredential(t, clientID, platformID, "ops")
	credentialID := created["id"].(float64)

	rec := s.as(t, "99").do(t, http.MethodGet, "/api/v1/credentials/"+jsonNumber(int64(credentialID)), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/activity", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []map[string]any
	decodeJSON(t, rec, &all)
	require.Len(t, all, 4)
	assert.Equal(t, "read", all[0]["action_type"])
	assert.Equal(t, float64(99), all[0]["user_id"])
	assert.Equal(t, "handler-test", all[0]["user_agent"])
	assert.NotContains(t, rec.Body.String(), "ops-pass")

	rec = s.do(t, http.MethodGet, "/api/v1/activity?user_id=7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []map[string]any
	decodeJSON(t, rec, &mine)
	assert.Len(t, mine, 3)

	rec = s.do(t, http.MethodGet, "/api/v1/activity?entity_type=credential&entity_id="+jsonNumber(int64(credentialID)), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []map[string]any
	decodeJSON(t, rec, &history)
	require.Len(t, history, 2)
	assert.Equal(t, "create", history[1]["action_type"])

	rec = s.do(t, http.MethodGet, "/api/v1/activity?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var limited []map[string]any
	decodeJSON(t, rec, &limited)
	assert.Len(t, limited, 1)

	for _, query := range []string{"action=purge", "entity_type=team", "user_id=abc", "entity_id=-1", "limit=x"} {
		rec = s.do(t, http.MethodGet, "/api/v1/activity?"+query, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}
