package dal

import (
	"context"
	"fmt"

	"github.com/couchbase/gocb/v2"

	"carelytics.io/homehealth/internal/ingest"
)

const importLogCollection = "import_log"

// ImportLogModel persists per-file import outcomes to Couchbase.
type ImportLogModel struct {
	conn *Connection
}

// NewImportLogModel creates an import log over an established connection.
func NewImportLogModel(conn *Connection) *ImportLogModel {
	return &ImportLogModel{conn: conn}
}

// Record upserts an import log entry keyed by its import ID.
func (m *ImportLogModel) Record(ctx context.Context, entry ingest.ImportEntry) error {
	docID := "import::" + entry.ImportID
	_, err := m.conn.collection(importLogCollection).Upsert(docID, entry, &gocb.UpsertOptions{Context: ctx})
	if err != nil {
		return fmt.Errorf("record import %s: %w", entry.ImportID, err)
	}
	return nil
}
