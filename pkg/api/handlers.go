package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/lanhub/lanhub/internal/logger"
	"github.com/lanhub/lanhub/internal/perms"
	"github.com/lanhub/lanhub/pkg/server"
)

// PermissionsHandler exposes the global permission table.
type PermissionsHandler struct {
	perms *perms.Table
}

// NewPermissionsHandler creates a PermissionsHandler.
func NewPermissionsHandler(t *perms.Table) *PermissionsHandler {
	return &PermissionsHandler{perms: t}
}

// Get handles GET /api/v1/permissions.
func (h *PermissionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, h.perms.Snapshot())
}

// Put handles PUT /api/v1/permissions. The body is the complete flag set;
// every flag is replaced at once.
func (h *PermissionsHandler) Put(w http.ResponseWriter, r *http.Request) {
	var flags perms.Flags
	if !decodeJSONBody(w, r, &flags) {
		return
	}

	h.perms.Set(flags)
	logger.Info("permission flags updated",
		"distribute_message", flags.DistributeMessage,
		"all_user_put_message", flags.AllUserPutMessage,
		"all_user_upload_file", flags.AllUserUploadFile)
	WriteJSONOK(w, h.perms.Snapshot())
}

// MessagesHandler accepts operator broadcasts.
type MessagesHandler struct {
	master *server.Master
}

// NewMessagesHandler creates a MessagesHandler.
func NewMessagesHandler(m *server.Master) *MessagesHandler {
	return &MessagesHandler{master: m}
}

// BroadcastRequest is the request body for POST /api/v1/messages.
type BroadcastRequest struct {
	Body string `json:"body"`
}

// Post handles POST /api/v1/messages. The message is queued for the next
// coordination tick and delivered to every logged-in user regardless of
// the distribution flag.
func (h *MessagesHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req BroadcastRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		UnprocessableEntity(w, "Message body must not be empty")
		return
	}

	h.master.SendMessage(req.Body)
	logger.Info("operator broadcast queued", logger.KeySize, len(req.Body))
	WriteNoContent(w)
}

// StatusHandler reports server liveness counters.
type StatusHandler struct {
	name   string
	master *server.Master
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(name string, m *server.Master) *StatusHandler {
	return &StatusHandler{name: name, master: m}
}

// StatusResponse is the response body for GET /api/v1/status.
type StatusResponse struct {
	Name              string `json:"name"`
	UptimeSeconds     int64  `json:"uptime_seconds"`
	ActiveConnections int    `json:"active_connections"`
	LoggedInUsers     int    `json:"logged_in_users"`
}

// Get handles GET /api/v1/status.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, StatusResponse{
		Name:              h.name,
		UptimeSeconds:     int64(h.master.Uptime() / time.Second),
		ActiveConnections: h.master.ActiveConnections(),
		LoggedInUsers:     h.master.LoggedInUsers(),
	})
}
