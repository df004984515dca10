package apiclient_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/saptapadi/admin-gateway/apiclient"
	"github.com/saptapadi/admin-gateway/session"
)

const refreshPath = "/api/auth/refresh-token"

func seededStore(t *testing.T) *session.MemoryStore {
	t.Helper()
	store := session.NewMemoryStore()
	require.NoError(t, store.SetIdentity(session.Identity{Name: "Asha", Role: "Moderator"}))
	require.NoError(t, store.Write(session.TokenPair{AccessToken: "stale", RefreshToken: "refresh-0"}))
	return store
}

func newClient(t *testing.T, baseURL string, store session.Store, opts ...apiclient.Option) *apiclient.Client {
	t.Helper()
	client, err := apiclient.New(baseURL, store, opts...)
	require.NoError(t, err)
	return client
}

func writeRefreshSuccess(w http.ResponseWriter) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    map[string]string{"token": "fresh", "refreshToken": "refresh-1"},
	})
}

func TestSendAttachesBearerToken(t *testing.T) {
	var gotAuth, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := newClient(t, srv.URL, seededStore(t))
	resp, err := client.Post(context.Background(), "/api/admin/users", map[string]string{"q": "x"})
	require.NoError(t, err)
	require.True(t, resp.OK())
	require.Equal(t, "Bearer stale", gotAuth)
	require.Equal(t, "application/json", gotContentType)

	var body struct {
		Success bool `json:"success"`
	}
	require.NoError(t, resp.DecodeJSON(&body))
	require.True(t, body.Success)
}

func TestSendWithoutTokenIsUnauthenticated(t *testing.T) {
	var sawAuthHeader bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawAuthHeader = r.Header["Authorization"]
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := newClient(t, srv.URL, session.NewMemoryStore())
	resp, err := client.Get(context.Background(), "/api/masters/religion")
	require.NoError(t, err)
	require.True(t, resp.OK())
	require.False(t, sawAuthHeader)
}

func TestRefreshAndRetryOn401(t *testing.T) {
	var refreshCalls int32
	store := seededStore(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/dashboard", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	mux.HandleFunc(refreshPath, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "refresh-0", req.RefreshToken)
		writeRefreshSuccess(w)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newClient(t, srv.URL, store)
	resp, err := client.Get(context.Background(), "/api/admin/dashboard")
	require.NoError(t, err)
	require.True(t, resp.OK())
	require.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))

	// Both tokens replaced, role and identity untouched.
	sess := store.Read()
	require.Equal(t, "fresh", sess.AccessToken)
	require.Equal(t, "refresh-1", sess.RefreshToken)
	require.Equal(t, "Asha", sess.Identity.Name)
}

func TestConcurrentRefreshIsCoalesced(t *testing.T) {
	var (
		refreshCalls int32
		stale401s    int32
	)
	bothStale := make(chan struct{})
	store := seededStore(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer fresh" {
			_, _ = w.Write([]byte(`{"success":true}`))
			return
		}
		if atomic.AddInt32(&stale401s, 1) == 2 {
			close(bothStale)
		}
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc(refreshPath, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		// Hold the refresh open until both callers have seen their 401 and
		// had time to attach to the in-flight refresh.
		select {
		case <-bothStale:
		case <-time.After(5 * time.Second):
		}
		time.Sleep(200 * time.Millisecond)
		writeRefreshSuccess(w)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newClient(t, srv.URL, store)

	var wg sync.WaitGroup
	results := make([]*apiclient.Response, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = client.Get(context.Background(), "/api/admin/users")
		}(i)
	}
	wg.Wait()

	for i := 0; i < 2; i++ {
		require.NoError(t, errs[i])
		require.True(t, results[i].OK())
	}
	require.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
}

func TestTerminalRefreshFailureClearsSession(t *testing.T) {
	var (
		refreshCalls int32
		logouts      int32
	)
	store := seededStore(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/reports", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc(refreshPath, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		w.WriteHeader(http.StatusForbidden)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newClient(t, srv.URL, store, apiclient.WithOnAuthFailure(func() {
		atomic.AddInt32(&logouts, 1)
	}))

	resp, err := client.Get(context.Background(), "/api/admin/reports")
	require.NoError(t, err)
	require.True(t, resp.Unauthorized())

	require.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	require.Equal(t, int32(1), atomic.LoadInt32(&logouts))
	require.Equal(t, session.Session{}, store.Read())
}

func TestMissingRefreshTokenFailsWithoutNetworkCall(t *testing.T) {
	var (
		refreshCalls int32
		logouts      int32
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/cms", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc(refreshPath, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		writeRefreshSuccess(w)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	// No tokens stored at all: the call goes out unauthenticated and the
	// refresh fails immediately.
	store := session.NewMemoryStore()
	client := newClient(t, srv.URL, store, apiclient.WithOnAuthFailure(func() {
		atomic.AddInt32(&logouts, 1)
	}))

	resp, err := client.Get(context.Background(), "/api/admin/cms")
	require.NoError(t, err)
	require.True(t, resp.Unauthorized())
	require.Equal(t, int32(0), atomic.LoadInt32(&refreshCalls))
	require.Equal(t, int32(1), atomic.LoadInt32(&logouts))
}

func TestSecond401AfterSuccessfulRefreshIsReturned(t *testing.T) {
	var (
		refreshCalls int32
		logouts      int32
	)
	store := seededStore(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/matches", func(w http.ResponseWriter, r *http.Request) {
		// Rejects even fresh tokens.
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc(refreshPath, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		writeRefreshSuccess(w)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newClient(t, srv.URL, store, apiclient.WithOnAuthFailure(func() {
		atomic.AddInt32(&logouts, 1)
	}))

	resp, err := client.Get(context.Background(), "/api/admin/matches")
	require.NoError(t, err)
	require.True(t, resp.Unauthorized())

	// Exactly one refresh, no forced logout: the refresh itself succeeded.
	require.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	require.Equal(t, int32(0), atomic.LoadInt32(&logouts))
	require.Equal(t, "fresh", store.Read().AccessToken)
}

func TestNon401ErrorsPassThrough(t *testing.T) {
	var refreshCalls int32
	store := seededStore(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/users", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"success":false,"message":"upstream down"}`, http.StatusServiceUnavailable)
	})
	mux.HandleFunc(refreshPath, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newClient(t, srv.URL, store)
	resp, err := client.Get(context.Background(), "/api/admin/users")
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.Equal(t, int32(0), atomic.LoadInt32(&refreshCalls))
	require.Equal(t, "stale", store.Read().AccessToken)
}

func TestUploadKeepsCallerContentType(t *testing.T) {
	const multipartType = "multipart/form-data; boundary=xyz"
	var contentTypes []string
	store := seededStore(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/photos", func(w http.ResponseWriter, r *http.Request) {
		contentTypes = append(contentTypes, r.Header.Get("Content-Type"))
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Equal(t, "payload", string(body))
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc(refreshPath, func(w http.ResponseWriter, r *http.Request) {
		writeRefreshSuccess(w)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newClient(t, srv.URL, store)
	resp, err := client.Upload(context.Background(), "/api/users/photos", multipartType, strings.NewReader("payload"))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Both the original and the retried upload carried the caller's
	// multipart content type, never application/json.
	require.Equal(t, []string{multipartType, multipartType}, contentTypes)
}
