package instagram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"socialhub/domain/model"
)

func TestAuthURL(t *testing.T) {
	m := NewOAuthManager(OAuthConfig{ClientID: "cid", RedirectURI: "https://api.example.com/instagram/callback"})
	raw, err := m.AuthURL(context.Background(), "user_1")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "api.instagram.com", u.Host)
	assert.Equal(t, "/oauth/authorize", u.Path)
	assert.Equal(t, "user_1", u.Query().Get("state"))
	assert.Equal(t, "user_profile,user_media", u.Query().Get("scope"))
	assert.Equal(t, "code", u.Query().Get("response_type"))
}

func newOAuthServer(t *testing.T, longLivedStatus int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/access_token":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
			_, _ = w.Write([]byte(`{"access_token":"short","user_id":17841400000000001}`))
		case "/access_token":
			assert.Equal(t, "ig_exchange_token", r.URL.Query().Get("grant_type"))
			assert.Equal(t, "short", r.URL.Query().Get("access_token"))
			w.WriteHeader(longLivedStatus)
			if longLivedStatus == http.StatusOK {
				_, _ = w.Write([]byte(`{"access_token":"long","token_type":"bearer","expires_in":5184000}`))
			} else {
				_, _ = w.Write([]byte(`{"error":{"message":"Unsupported request"}}`))
			}
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
}

func TestExchange_LongLived(t *testing.T) {
	srv := newOAuthServer(t, http.StatusOK)
	defer srv.Close()

	m := NewOAuthManager(OAuthConfig{ClientID: "cid", ClientSecret: "cs", AuthBaseURL: srv.URL, GraphBaseURL: srv.URL})
	userID, creds, err := m.Exchange(context.Background(), model.CallbackParams{Code: "c", State: "user_1"})
	require.NoError(t, err)
	assert.Equal(t, "user_1", userID)
	ic := creds.(model.InstagramCredentials)
	assert.Equal(t, "long", ic.AccessToken)
	assert.Equal(t, "17841400000000001", ic.UserID)
	assert.True(t, ic.LongLived)
}

func TestExchange_FallsBackToShortLived(t *testing.T) {
	srv := newOAuthServer(t, http.StatusBadRequest)
	defer srv.Close()

	m := NewOAuthManager(OAuthConfig{ClientID: "cid", ClientSecret: "cs", AuthBaseURL: srv.URL, GraphBaseURL: srv.URL})
	_, creds, err := m.Exchange(context.Background(), model.CallbackParams{Code: "c", State: "user_1"})
	require.NoError(t, err)
	ic := creds.(model.InstagramCredentials)
	assert.Equal(t, "short", ic.AccessToken)
	assert.False(t, ic.LongLived)
}

func TestExchange_CodeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_type":"OAuthException","code":400,"error_message":"Matching code was not found or was already used"}`))
	}))
	defer srv.Close()

	m := NewOAuthManager(OAuthConfig{ClientID: "cid", AuthBaseURL: srv.URL, GraphBaseURL: srv.URL})
	_, creds, err := m.Exchange(context.Background(), model.CallbackParams{Code: "c", State: "user_1"})
	assert.Nil(t, creds)
	var oe *model.OAuthError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, "token", oe.Step)
	assert.Equal(t, "Matching code was not found or was already used", oe.Message)
}

func TestRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/refresh_access_token", r.URL.Path)
		assert.Equal(t, "ig_refresh_token", r.URL.Query().Get("grant_type"))
		_, _ = w.Write([]byte(`{"access_token":"renewed","expires_in":5184000}`))
	}))
	defer srv.Close()

	m := NewOAuthManager(OAuthConfig{GraphBaseURL: srv.URL})
	next, err := m.Refresh(context.Background(), model.InstagramCredentials{AccessToken: "long", UserID: "ig1"})
	require.NoError(t, err)
	ic := next.(model.InstagramCredentials)
	assert.Equal(t, "renewed", ic.AccessToken)
	assert.Equal(t, "ig1", ic.UserID)
}

func writeVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reel.mp4")
	require.NoError(t, os.WriteFile(path, []byte("video-bytes"), 0o600))
	return path
}

func TestUpload_ThreePhase(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/ig1/media":
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "REELS", r.FormValue("media_type"))
			assert.Equal(t, "true", r.FormValue("share_to_feed"))
			assert.Len(t, []rune(r.FormValue("caption")), 2200)
			_, _, err := r.FormFile("video_file")
			assert.NoError(t, err)
			_, _ = w.Write([]byte(`{"id":"container-1"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/container-1":
			assert.Equal(t, "status_code", r.URL.Query().Get("fields"))
			if atomic.AddInt32(&polls, 1) < 3 {
				_, _ = w.Write([]byte(`{"status_code":"IN_PROGRESS"}`))
				return
			}
			_, _ = w.Write([]byte(`{"status_code":"FINISHED"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/ig1/media_publish":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "container-1", r.PostForm.Get("creation_id"))
			_, _ = w.Write([]byte(`{"id":"media-9"}`))
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	u := NewUploader(UploaderConfig{BaseURL: srv.URL, PollInterval: 5 * time.Millisecond, PollTimeout: time.Second})
	res, err := u.Upload(context.Background(), model.UploadRequest{
		UserID:      "user_1",
		Credentials: model.InstagramCredentials{AccessToken: "tok", UserID: "ig1"},
		FilePath:    writeVideo(t),
		Metadata:    model.UploadMetadata{Title: strings.Repeat("t", 2300)},
	})
	require.NoError(t, err)
	assert.Equal(t, "media-9", res.ID)
	assert.Equal(t, "published", res.Status)
	assert.Equal(t, "container-1", res.Details["container_id"])
	assert.Equal(t, int32(3), atomic.LoadInt32(&polls))
}

func TestUpload_PollTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ig1/media" {
			_, _ = w.Write([]byte(`{"id":"c"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status_code":"IN_PROGRESS"}`))
	}))
	defer srv.Close()

	u := NewUploader(UploaderConfig{BaseURL: srv.URL, PollInterval: 5 * time.Millisecond, PollTimeout: 30 * time.Millisecond})
	_, err := u.Upload(context.Background(), model.UploadRequest{
		Credentials: model.InstagramCredentials{AccessToken: "tok", UserID: "ig1"},
		FilePath:    writeVideo(t),
	})
	var pe *model.PlatformError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, model.PlatformErrorTimeout, pe.Kind)
	assert.Equal(t, "poll", pe.Op)
}

func TestUpload_ContainerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ig1/media" {
			_, _ = w.Write([]byte(`{"id":"c"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status_code":"ERROR","status":"Error: unsupported codec"}`))
	}))
	defer srv.Close()

	u := NewUploader(UploaderConfig{BaseURL: srv.URL, PollInterval: 5 * time.Millisecond, PollTimeout: time.Second})
	_, err := u.Upload(context.Background(), model.UploadRequest{
		Credentials: model.InstagramCredentials{AccessToken: "tok", UserID: "ig1"},
		FilePath:    writeVideo(t),
	})
	var pe *model.PlatformError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, model.PlatformErrorRejected, pe.Kind)
	assert.Contains(t, pe.Message, "unsupported codec")
}
