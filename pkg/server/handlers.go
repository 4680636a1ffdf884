package server

import (
	"errors"
	"os"
	"time"

	"github.com/lanhub/lanhub/internal/logger"
	"github.com/lanhub/lanhub/internal/protocol"
	"github.com/lanhub/lanhub/internal/share"
	"github.com/lanhub/lanhub/internal/users"
)

// handlerFunc services one request and returns the response status and
// payload. Handlers run on the worker main goroutine only.
type handlerFunc func(w *Worker, pkt *protocol.Packet) (protocol.Status, any)

// commandTable routes request commands to handlers. Unknown commands fall
// through to ERR_UNDEF_CMD in dispatch.
var commandTable = map[string]handlerFunc{
	protocol.CmdLogin:       handleLogin,
	protocol.CmdGetFileList: handleGetFileList,
	protocol.CmdGetMessage:  handleGetMessage,
	protocol.CmdPutMessage:  handlePutMessage,
	protocol.CmdGetFile:     handleGetFile,
	protocol.CmdPutFile:     handlePutFile,
}

// handleLogin forwards the credentials to the master, which owns the user
// table and the one-connection-per-user rule. On success the master has
// already bound this worker (displacing any previous one).
func handleLogin(w *Worker, pkt *protocol.Packet) (protocol.Status, any) {
	id, err := pkt.StringArg(0)
	if err != nil {
		return protocol.StatusErrUserUndefined, nil
	}
	password, err := pkt.StringArg(1)
	if err != nil {
		return protocol.StatusErrPswdUnmatch, nil
	}

	a := newAsk(askUser, id, password)
	if err := w.askMaster(a); err != nil {
		return protocol.StatusErrServerBusy, nil
	}
	if a.status == protocol.StatusOK {
		rec := a.payload.(*users.Record)
		w.user = rec
		w.loggedIn.Store(true)
		logger.Info("login", logger.KeyClientAddr, w.peerAddr, logger.KeyUser, rec.ID)
	}
	return a.status, nil
}

func handleGetFileList(w *Worker, pkt *protocol.Packet) (protocol.Status, any) {
	if !w.master.perms.AllUserGetFilelist() {
		return protocol.StatusErrNoPermission, nil
	}
	dirPath, err := pkt.StringArg(0)
	if err != nil {
		return protocol.StatusErrDirNotExist, nil
	}

	dirs, files, err := w.master.share.List(dirPath)
	if err != nil {
		return protocol.StatusErrDirNotExist, nil
	}

	dirList := make([]any, 0, len(dirs))
	for _, d := range dirs {
		dirList = append(dirList, d)
	}
	fileList := make([]any, 0, len(files))
	for _, f := range files {
		fileList = append(fileList, []any{f.Name, f.Suffix, f.Size, f.Mtime})
	}
	return protocol.StatusOK, []any{dirList, fileList}
}

// handleGetMessage drains the inbox. A per-user denial also discards any
// queued messages so they cannot pile up for a permanently denied user.
func handleGetMessage(w *Worker, pkt *protocol.Packet) (protocol.Status, any) {
	if !w.master.perms.AllUserGetMessage() {
		return protocol.StatusErrNoPermission, nil
	}
	if !w.user.Perms.MsgDown {
		w.msgInbox.drain()
		return protocol.StatusErrNoPermission, nil
	}

	msgs := w.msgInbox.drain()
	out := make([]any, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.wire())
	}
	return protocol.StatusOK, out
}

func handlePutMessage(w *Worker, pkt *protocol.Packet) (protocol.Status, any) {
	if !w.master.perms.AllUserPutMessage() {
		return protocol.StatusErrNoPermission, nil
	}
	if !w.user.Perms.MsgUp {
		return protocol.StatusErrNoPermission, nil
	}
	body, err := pkt.StringArg(0)
	if err != nil {
		return protocol.StatusErrUndefCmd, nil
	}

	a := newAsk(askMsg, Message{Sender: w.user.ID, Time: time.Now(), Body: body})
	if err := w.askMaster(a); err != nil {
		return protocol.StatusErrServerBusy, nil
	}
	return a.status, nil
}

// handleGetFile opens a transfer endpoint and answers [port, size]. The
// client then connects to the ephemeral port for the bytes; the control
// connection stays free.
func handleGetFile(w *Worker, pkt *protocol.Packet) (protocol.Status, any) {
	if !w.master.perms.AllUserDownloadFile() {
		return protocol.StatusErrNoPermission, nil
	}
	if !w.user.Perms.FileDown {
		return protocol.StatusErrNoPermission, nil
	}
	path, err := pkt.StringArg(0)
	if err != nil {
		return protocol.StatusErrFileNotExist, nil
	}
	offset, err := pkt.IntArg(1)
	if err != nil || offset < 0 {
		return protocol.StatusErrFileNotExist, nil
	}

	abs, info, err := w.master.share.StatFile(path)
	if err != nil {
		// An escaping path gets the same answer as a missing file: the
		// server does not reveal structure outside the share.
		return protocol.StatusErrFileNotExist, nil
	}
	if offset > info.Size() {
		return protocol.StatusErrFileNotExist, nil
	}

	t, err := newTransfer(w.master, directionSend, abs, info.Size(), offset, w.peerIP)
	if err != nil {
		return protocol.StatusErrServerBusy, nil
	}
	logger.Info("download started",
		logger.KeyClientAddr, w.peerAddr, logger.KeyUser, w.user.ID,
		logger.KeyPath, abs, logger.KeySize, info.Size(),
		logger.KeyOffset, offset, logger.KeyPort, t.port())
	go t.run()
	return protocol.StatusOK, []any{t.port(), info.Size()}
}

// handlePutFile refuses existing targets before opening the endpoint, then
// answers [port] and ingests exactly the declared size.
func handlePutFile(w *Worker, pkt *protocol.Packet) (protocol.Status, any) {
	if !w.master.perms.AllUserUploadFile() {
		return protocol.StatusErrNoPermission, nil
	}
	if !w.user.Perms.FileUp {
		return protocol.StatusErrNoPermission, nil
	}
	path, err := pkt.StringArg(0)
	if err != nil {
		return protocol.StatusErrNoPermission, nil
	}
	size, err := pkt.IntArg(1)
	if err != nil || size < 0 {
		return protocol.StatusErrNoPermission, nil
	}

	abs, err := w.master.share.Resolve(path)
	if err != nil {
		if errors.Is(err, share.ErrEscapesRoot) {
			logger.Warn("upload path escapes share",
				logger.KeyClientAddr, w.peerAddr, logger.KeyUser, w.user.ID, logger.KeyPath, path)
		}
		return protocol.StatusErrNoPermission, nil
	}
	if _, err := os.Stat(abs); err == nil {
		return protocol.StatusErrFileAlreadyExist, nil
	} else if !os.IsNotExist(err) {
		return protocol.StatusErrServerBusy, nil
	}
	if max := w.master.maxTransferSize; max > 0 && size > max {
		logger.Warn("upload exceeds size cap",
			logger.KeyClientAddr, w.peerAddr, logger.KeySize, size, "cap", max)
		return protocol.StatusErrServerBusy, nil
	}

	t, err := newTransfer(w.master, directionRecv, abs, size, 0, w.peerIP)
	if err != nil {
		return protocol.StatusErrServerBusy, nil
	}
	logger.Info("upload started",
		logger.KeyClientAddr, w.peerAddr, logger.KeyUser, w.user.ID,
		logger.KeyPath, abs, logger.KeySize, size, logger.KeyPort, t.port())
	go t.run()
	return protocol.StatusOK, []any{t.port()}
}
