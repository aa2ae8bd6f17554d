package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-catalogue/internal/common"
)

func seededAdmin(t *testing.T, password string) Admin {
	t.Helper()
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	require.NoError(t, err)
	return Admin{ID: "admin-1", Email: "admin@example.com", PasswordHash: hash}
}

func postJSON(t *testing.T, handler http.HandlerFunc, body any, ctx context.Context) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	if ctx != nil {
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestLoginHandlerSuccess(t *testing.T) {
	admin := seededAdmin(t, "correct horse")
	svc := newTestService(t, newFakeAdmins(admin))
	h := &Handler{Service: svc}

	rec := postJSON(t, h.Login, loginRequest{Email: admin.Email, Password: "correct horse"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data LoginResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data.AccessToken)
	require.Equal(t, admin.Email, body.Data.Admin.Email)

	subject, err := svc.ParseAccessToken(body.Data.AccessToken)
	require.NoError(t, err)
	require.Equal(t, admin.ID, subject)
}

func TestLoginHandlerWrongPassword(t *testing.T) {
	admin := seededAdmin(t, "correct horse")
	h := &Handler{Service: newTestService(t, newFakeAdmins(admin))}

	rec := postJSON(t, h.Login, loginRequest{Email: admin.Email, Password: "battery staple"}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "INVALID_CREDENTIALS")
}

func TestLoginHandlerUnknownEmailSameError(t *testing.T) {
	h := &Handler{Service: newTestService(t, newFakeAdmins())}

	rec := postJSON(t, h.Login, loginRequest{Email: "nobody@example.com", Password: "whatever"}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "INVALID_CREDENTIALS")
}

func TestUpdateCredentialsHandler(t *testing.T) {
	admin := seededAdmin(t, "old password")
	store := newFakeAdmins(admin)
	svc := newTestService(t, store)
	h := &Handler{Service: svc}
	ctx := common.WithUserID(context.Background(), admin.ID)

	rec := postJSON(t, h.UpdateCredentials, updateCredentialsRequest{
		CurrentPassword: "old password",
		Email:           "new@example.com",
		NewPassword:     "new password",
	}, ctx)
	require.Equal(t, http.StatusOK, rec.Code)

	// Old password no longer works, new pair does.
	_, err := svc.Login(context.Background(), "new@example.com", "old password")
	require.Error(t, err)
	result, err := svc.Login(context.Background(), "new@example.com", "new password")
	require.NoError(t, err)
	require.Equal(t, admin.ID, result.Admin.ID)
}

func TestUpdateCredentialsRejectsWrongCurrentPassword(t *testing.T) {
	admin := seededAdmin(t, "old password")
	h := &Handler{Service: newTestService(t, newFakeAdmins(admin))}
	ctx := common.WithUserID(context.Background(), admin.ID)

	rec := postJSON(t, h.UpdateCredentials, updateCredentialsRequest{
		CurrentPassword: "wrong",
		NewPassword:     "new password",
	}, ctx)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateCredentialsRejectsShortPassword(t *testing.T) {
	admin := seededAdmin(t, "old password")
	h := &Handler{Service: newTestService(t, newFakeAdmins(admin))}
	ctx := common.WithUserID(context.Background(), admin.ID)

	rec := postJSON(t, h.UpdateCredentials, updateCredentialsRequest{
		CurrentPassword: "old password",
		NewPassword:     "short",
	}, ctx)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "WEAK_PASSWORD")
}

func TestRequireAuthMiddleware(t *testing.T) {
	admin := seededAdmin(t, "correct horse")
	svc := newTestService(t, newFakeAdmins(admin))
	fixed := time.Now()
	svc.WithNow(func() time.Time { return fixed })
	token, _, err := svc.signAccessToken(admin.ID)
	require.NoError(t, err)

	mw := Middleware{Service: svc}
	var gotID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = common.UserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.RequireAuth(next).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, admin.ID, gotID)

	// No token is a hard 401.
	rec = httptest.NewRecorder()
	mw.RequireAuth(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
