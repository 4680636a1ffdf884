package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanhub/lanhub/internal/perms"
	"github.com/lanhub/lanhub/internal/share"
	"github.com/lanhub/lanhub/internal/users"
	"github.com/lanhub/lanhub/pkg/server"
)

func newTestRouter(t *testing.T) (http.Handler, *server.Master, *perms.Table) {
	t.Helper()

	sh, err := share.Open(t.TempDir())
	require.NoError(t, err)
	tbl, err := users.NewTable([]*users.Record{
		{ID: "alice", Password: "pw"},
	})
	require.NoError(t, err)

	table := perms.New(perms.DefaultFlags())
	m, err := server.New(server.Options{
		BindAddress: "127.0.0.1",
		Port:        0,
		Share:       sh,
		Users:       tbl,
		Perms:       table,
	})
	require.NoError(t, err)
	m.Start()
	t.Cleanup(m.Stop)

	return NewRouter(Options{ServerName: "testhub", Master: m, Perms: table}), m, table
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestHealth(t *testing.T) {
	h, _, _ := newTestRouter(t)
	w := doRequest(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetPermissions(t *testing.T) {
	h, _, _ := newTestRouter(t)

	w := doRequest(t, h, http.MethodGet, "/api/v1/permissions", "")
	require.Equal(t, http.StatusOK, w.Code)

	var flags perms.Flags
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &flags))
	assert.Equal(t, perms.DefaultFlags(), flags)
}

func TestPutPermissions(t *testing.T) {
	h, _, table := newTestRouter(t)

	body := `{
		"allUserGetMessage": true,
		"allUserPutMessage": true,
		"distributeMessage": false,
		"allUserGetFilelist": true,
		"allUserDownloadFile": true,
		"allUserUploadFile": true
	}`
	w := doRequest(t, h, http.MethodPut, "/api/v1/permissions", body)
	require.Equal(t, http.StatusOK, w.Code)

	snap := table.Snapshot()
	assert.True(t, snap.AllUserPutMessage)
	assert.False(t, snap.DistributeMessage)
	assert.True(t, snap.AllUserUploadFile)
}

func TestPutPermissionsRejectsGarbage(t *testing.T) {
	h, _, _ := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", "not json"},
		{"unknown field", `{"allUserFlyToTheMoon": true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, h, http.MethodPut, "/api/v1/permissions", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, ContentTypeProblemJSON, w.Header().Get("Content-Type"))
		})
	}
}

func TestPostMessage(t *testing.T) {
	h, m, _ := newTestRouter(t)

	w := doRequest(t, h, http.MethodPost, "/api/v1/messages", `{"body":"downtime at 5"}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	select {
	case msg := <-m.Tap():
		assert.Equal(t, server.SenderServer, msg.Sender)
		assert.Equal(t, "downtime at 5", msg.Body)
	case <-time.After(time.Second):
		t.Fatal("broadcast never reached the master")
	}
}

func TestPostMessageRejectsEmptyBody(t *testing.T) {
	h, _, _ := newTestRouter(t)
	w := doRequest(t, h, http.MethodPost, "/api/v1/messages", `{"body":"  "}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestStatus(t *testing.T) {
	h, _, _ := newTestRouter(t)

	w := doRequest(t, h, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var status StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "testhub", status.Name)
	assert.Zero(t, status.ActiveConnections)
	assert.Zero(t, status.LoggedInUsers)
}
