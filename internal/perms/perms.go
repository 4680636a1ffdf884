// Package perms holds the process-wide permission policy.
//
// The table is mutated at runtime by the operator (admin API) while every
// worker reads it on each request. Each flag is an atomic boolean: readers
// may observe any interleaving of writes, but an individual flag is always
// coherent. Access goes through methods only.
package perms

import "sync/atomic"

// Table is the global permission policy: six flags gating the broadcast
// channel and the shared directory for all users at once.
type Table struct {
	allUserGetMessage   atomic.Bool
	allUserPutMessage   atomic.Bool
	distributeMessage   atomic.Bool
	allUserGetFilelist  atomic.Bool
	allUserDownloadFile atomic.Bool
	allUserUploadFile   atomic.Bool
}

// Flags is the plain-value form of the table, used for configuration and
// the admin API.
type Flags struct {
	AllUserGetMessage   bool `json:"allUserGetMessage" mapstructure:"all_user_get_message" yaml:"all_user_get_message"`
	AllUserPutMessage   bool `json:"allUserPutMessage" mapstructure:"all_user_put_message" yaml:"all_user_put_message"`
	DistributeMessage   bool `json:"distributeMessage" mapstructure:"distribute_message" yaml:"distribute_message"`
	AllUserGetFilelist  bool `json:"allUserGetFilelist" mapstructure:"all_user_get_filelist" yaml:"all_user_get_filelist"`
	AllUserDownloadFile bool `json:"allUserDownloadFile" mapstructure:"all_user_download_file" yaml:"all_user_download_file"`
	AllUserUploadFile   bool `json:"allUserUploadFile" mapstructure:"all_user_upload_file" yaml:"all_user_upload_file"`
}

// DefaultFlags mirrors the policy a fresh server starts with: clients may
// read but the write-side channels are opt-in.
func DefaultFlags() Flags {
	return Flags{
		AllUserGetMessage:   true,
		AllUserPutMessage:   false,
		DistributeMessage:   true,
		AllUserGetFilelist:  true,
		AllUserDownloadFile: true,
		AllUserUploadFile:   false,
	}
}

// New creates a table initialized from f.
func New(f Flags) *Table {
	t := &Table{}
	t.Set(f)
	return t
}

// Set overwrites every flag from f. Concurrent readers may observe a mix of
// old and new flags; each individual flag flips atomically.
func (t *Table) Set(f Flags) {
	t.allUserGetMessage.Store(f.AllUserGetMessage)
	t.allUserPutMessage.Store(f.AllUserPutMessage)
	t.distributeMessage.Store(f.DistributeMessage)
	t.allUserGetFilelist.Store(f.AllUserGetFilelist)
	t.allUserDownloadFile.Store(f.AllUserDownloadFile)
	t.allUserUploadFile.Store(f.AllUserUploadFile)
}

// Snapshot returns the current flag values.
func (t *Table) Snapshot() Flags {
	return Flags{
		AllUserGetMessage:   t.allUserGetMessage.Load(),
		AllUserPutMessage:   t.allUserPutMessage.Load(),
		DistributeMessage:   t.distributeMessage.Load(),
		AllUserGetFilelist:  t.allUserGetFilelist.Load(),
		AllUserDownloadFile: t.allUserDownloadFile.Load(),
		AllUserUploadFile:   t.allUserUploadFile.Load(),
	}
}

func (t *Table) AllUserGetMessage() bool   { return t.allUserGetMessage.Load() }
func (t *Table) AllUserPutMessage() bool   { return t.allUserPutMessage.Load() }
func (t *Table) DistributeMessage() bool   { return t.distributeMessage.Load() }
func (t *Table) AllUserGetFilelist() bool  { return t.allUserGetFilelist.Load() }
func (t *Table) AllUserDownloadFile() bool { return t.allUserDownloadFile.Load() }
func (t *Table) AllUserUploadFile() bool   { return t.allUserUploadFile.Load() }

func (t *Table) SetAllUserGetMessage(v bool)   { t.allUserGetMessage.Store(v) }
func (t *Table) SetAllUserPutMessage(v bool)   { t.allUserPutMessage.Store(v) }
func (t *Table) SetDistributeMessage(v bool)   { t.distributeMessage.Store(v) }
func (t *Table) SetAllUserGetFilelist(v bool)  { t.allUserGetFilelist.Store(v) }
func (t *Table) SetAllUserDownloadFile(v bool) { t.allUserDownloadFile.Store(v) }
func (t *Table) SetAllUserUploadFile(v bool)   { t.allUserUploadFile.Store(v) }
