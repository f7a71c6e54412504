package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/reportconsole/internal/auth"
	"github.com/reportconsole/internal/models"
)

func TestRequestsCarryCredentials(t *testing.T) {
	var gotAuth, gotCookie, gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc(PathHasApplicationAccess, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
		_, _ = w.Write([]byte(`{"hasAccess": false}`))
	})
	mux.HandleFunc(PathGetReport, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if c, err := r.Cookie("session"); err == nil {
			gotCookie = c.Value
		}
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"Report":{"fnReportID":5}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(srv.URL, WithToken("opaque"))
	require.NoError(t, err)

	has, err := c.HasApplicationAccess(context.Background())
	require.NoError(t, err)
	assert.False(t, has)

	raw, err := c.GetReport(context.Background(), 5, true)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Report":{"fnReportID":5}}`, string(raw))
	assert.Equal(t, "Bearer opaque", gotAuth)
	assert.Equal(t, "abc", gotCookie)
	assert.Equal(t, "id=5&isAdmin=1", gotQuery)
}

func TestHasAccessDefaultsTrue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	has, err := c.HasApplicationAccess(context.Background())
	require.NoError(t, err)
	assert.True(t, has)
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"Message":"An error has occurred."}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	_, err = c.GetUsers(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, http.MethodPost, apiErr.Method)
	assert.Equal(t, "An error has occurred.", apiErr.Body)
	assert.Contains(t, err.Error(), PathGetUsers)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url)
	require.NoError(t, err)
	_, err = c.GetDatabases(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	assert.NotErrorAs(t, err, &apiErr)
}

func TestUpdateUserUsesPut(t *testing.T) {
	var method, path string
	var body models.UserEdit
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`"updated"`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	edit := models.UserEdit{User: models.UserComplex{User: models.UserItem{ID: 44, FirstName: "John"}}}
	raw, err := c.UpdateUser(context.Background(), 44, edit)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/api/user/update/44", path)
	assert.Equal(t, "John", body.User.User.FirstName)
	assert.Equal(t, `"updated"`, string(raw))
}

func TestSaveDatabaseStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`"Saved"`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	status, err := c.SaveDatabase(context.Background(), models.DatabaseConnection{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, "Saved", status)
}

func TestExpiredTokenWarns(t *testing.T) {
	token, err := auth.Issue([]byte("0123456789abcdef"), "jdoe", false, -time.Hour)
	require.NoError(t, err)

	core, logs := observer.New(zap.WarnLevel)
	_, err = New("http://localhost:55009", WithToken(token), WithLogger(zap.New(core)))
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("api token has expired").Len())
}

func TestNewRejectsEmptyBaseURL(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
