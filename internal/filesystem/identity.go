package filesystem

import (
	"fmt"
	"os"
	"syscall"
	"time"
)

// Identity captures the attributes of a file that determine whether cached
// artifacts derived from it are still current. Two files with equal
// identities are assumed to have identical content for caching purposes.
type Identity struct {
	Size       int64
	ModTime    time.Time
	ChangeTime time.Time
}

// FileIdentity stats path and returns its identity.
func FileIdentity(path string, config RetryConfig) (Identity, error) {
	info, err := StatWithRetry(path, config)
	if err != nil {
		return Identity{}, fmt.Errorf("identity of %s: %w", path, err)
	}
	return IdentityFromInfo(info), nil
}

// IdentityFromInfo derives an Identity from an already obtained FileInfo.
// The change time falls back to the modification time when the platform
// does not report one.
func IdentityFromInfo(info os.FileInfo) Identity {
	id := Identity{
		Size:       info.Size(),
		ModTime:    info.ModTime(),
		ChangeTime: info.ModTime(),
	}
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		id.ChangeTime = time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	}
	return id
}
