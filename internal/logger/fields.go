package logger

// Standard field keys. Use these consistently so log lines can be filtered
// by connection, user, and command across the whole server.
const (
	KeyClientAddr = "client_addr" // remote address of the control connection
	KeyClientIP   = "client_ip"   // remote IP only (file-transfer peer checks)
	KeyUser       = "user"        // logged-in user id
	KeyCmd        = "cmd"         // protocol command name
	KeyPacketID   = "packet_id"   // request/response correlation id
	KeyStatus     = "status"      // protocol status code name
	KeyPath       = "path"        // resolved filesystem path
	KeyPort       = "port"        // TCP/UDP port
	KeySize       = "size"        // byte count
	KeyOffset     = "offset"      // transfer start offset
	KeyError      = "error"       // error message
)
