package perms

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	tbl := New(DefaultFlags())

	assert.True(t, tbl.AllUserGetMessage())
	assert.False(t, tbl.AllUserPutMessage())
	assert.True(t, tbl.DistributeMessage())
	assert.True(t, tbl.AllUserGetFilelist())
	assert.True(t, tbl.AllUserDownloadFile())
	assert.False(t, tbl.AllUserUploadFile())
}

func TestSnapshotRoundTrip(t *testing.T) {
	want := Flags{
		AllUserPutMessage: true,
		AllUserUploadFile: true,
	}
	tbl := New(want)
	assert.Equal(t, want, tbl.Snapshot())
}

func TestIndividualSetters(t *testing.T) {
	tbl := New(Flags{})

	tbl.SetAllUserUploadFile(true)
	assert.True(t, tbl.AllUserUploadFile())

	tbl.SetAllUserUploadFile(false)
	assert.False(t, tbl.AllUserUploadFile())
}

func TestConcurrentAccess(t *testing.T) {
	tbl := New(DefaultFlags())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(v bool) {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				tbl.SetDistributeMessage(v)
			}
		}(i%2 == 0)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				_ = tbl.Snapshot()
			}
		}()
	}
	wg.Wait()
}
