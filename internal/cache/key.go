package cache

import (
	"encoding/binary"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"devassist.app/engine/internal/model"
)

// Key is the deterministic fingerprint of an equivalence class of requests:
// identical keys must be treated as identical requests. FileID is kept
// alongside the hash so per-file invalidation can find every derived entry.
type Key struct {
	FileID string
	Hash   uint64
}

func (k Key) String() string {
	return k.FileID + ":" + strconv.FormatUint(k.Hash, 16)
}

// KeyFor fingerprints {file content, cursor, developer, standards version}
// plus the context epoch, so an explicit context invalidation changes the key
// even when nothing else did.
func KeyFor(snapshot model.CodeContext, developerID, standardsVersion string) Key {
	d := xxhash.New()

	var buf [8]byte
	writeField := func(s string) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
		_, _ = d.Write(buf[:])
		_, _ = d.WriteString(s)
	}

	writeField(snapshot.FileID)
	writeField(snapshot.Content)
	writeField(developerID)
	writeField(standardsVersion)

	binary.LittleEndian.PutUint64(buf[:], uint64(snapshot.CursorPosition))
	_, _ = d.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(snapshot.Epoch))
	_, _ = d.Write(buf[:])

	return Key{FileID: snapshot.FileID, Hash: d.Sum64()}
}
