package dal

import (
	"fmt"
	"time"

	"github.com/couchbase/gocb/v2"
	"github.com/rs/zerolog/log"
)

const lockDocID = "ingest_lock"

// IngestLock provides exclusive ingestion access to the registry.
// Resolution is a read-then-write (candidate scan, then create), so
// only one ingestion process may run at a time against a shared bucket.
type IngestLock struct {
	conn   *Connection
	owner  string
	locked bool
}

// NewIngestLock creates a lock for the named owner (the batch ID).
func NewIngestLock(conn *Connection, owner string) *IngestLock {
	return &IngestLock{conn: conn, owner: owner}
}

// Acquire takes the ingestion lock. It fails if another ingestion run
// holds it; a stale lock expires after an hour.
func (l *IngestLock) Acquire() error {
	if l.locked {
		return fmt.Errorf("ingest lock already held by this process")
	}

	lockDoc := map[string]interface{}{
		"locked":    true,
		"lockedAt":  time.Now().UTC(),
		"lockedBy":  l.owner,
		"expiresAt": time.Now().UTC().Add(1 * time.Hour),
	}

	col := l.conn.bucket.DefaultCollection()
	_, err := col.Insert(lockDocID, lockDoc, &gocb.InsertOptions{Expiry: 1 * time.Hour})
	if err != nil {
		return fmt.Errorf("acquire ingest lock: %w", err)
	}

	l.locked = true
	log.Info().Str("owner", l.owner).Msg("Ingest lock acquired")
	return nil
}

// Release releases the ingestion lock.
func (l *IngestLock) Release() error {
	if !l.locked {
		return fmt.Errorf("ingest lock is not held")
	}

	col := l.conn.bucket.DefaultCollection()
	if _, err := col.Remove(lockDocID, &gocb.RemoveOptions{}); err != nil {
		return fmt.Errorf("release ingest lock: %w", err)
	}

	l.locked = false
	log.Info().Str("owner", l.owner).Msg("Ingest lock released")
	return nil
}
