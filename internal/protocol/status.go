package protocol

// Status is the single integer status code carried in every response.
//
// Ranges:
//   - 0         success
//   - 200-299   authentication and permission errors
//   - 300-399   file and directory errors
//   - 400-499   server-side errors
//   - 500-599   protocol errors
type Status int

const (
	StatusOK Status = 0

	StatusErrNoLogin       Status = 201
	StatusErrUserUndefined Status = 202
	StatusErrPswdUnmatch   Status = 203
	StatusErrNoPermission  Status = 204
	StatusErrUserRelogin   Status = 205

	StatusErrFileNotExist Status = 301
	// StatusErrFileAlreadyExist keeps the value of the historical
	// ERR_FIEL_ALREADY_EXIST wire constant.
	StatusErrFileAlreadyExist Status = 302
	StatusErrDirNotExist      Status = 303
	StatusErrDirAlreadyExist  Status = 304

	StatusErrServerBusy Status = 401

	StatusErrUndefCmd Status = 501
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "SUCCESS"
	case StatusErrNoLogin:
		return "ERR_NO_LOGIN"
	case StatusErrUserUndefined:
		return "ERR_USER_UNDEFINED"
	case StatusErrPswdUnmatch:
		return "ERR_PSWD_UNMATCH"
	case StatusErrNoPermission:
		return "ERR_NO_PERMISSION"
	case StatusErrUserRelogin:
		return "ERR_USER_RELOGIN"
	case StatusErrFileNotExist:
		return "ERR_FILE_NOT_EXIST"
	case StatusErrFileAlreadyExist:
		return "ERR_FIEL_ALREADY_EXIST"
	case StatusErrDirNotExist:
		return "ERR_DIR_NOT_EXIST"
	case StatusErrDirAlreadyExist:
		return "ERR_DIR_ALREADY_EXIST"
	case StatusErrServerBusy:
		return "ERR_SERVER_BUSY"
	case StatusErrUndefCmd:
		return "ERR_UNDEF_CMD"
	default:
		return "UNKNOWN"
	}
}
