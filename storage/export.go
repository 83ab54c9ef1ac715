package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/Dosada05/league-draw/models"
)

// DrawKey is the object key of an exported draw.
func DrawKey(record *models.DrawRecord) string {
	return fmt.Sprintf("draws/%s/%s.json", record.Competition, record.ID)
}

// DrawExporter publishes finished draws as JSON documents.
type DrawExporter struct {
	uploader FileUploader
}

func NewDrawExporter(uploader FileUploader) *DrawExporter {
	return &DrawExporter{uploader: uploader}
}

// Export uploads record and returns its public URL.
func (e *DrawExporter) Export(ctx context.Context, record *models.DrawRecord) (string, error) {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal draw %s: %w", record.ID, err)
	}
	res, err := e.uploader.Upload(ctx, DrawKey(record), "application/json", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return res.Location, nil
}

// Withdraw removes a previously exported draw document.
func (e *DrawExporter) Withdraw(ctx context.Context, record *models.DrawRecord) error {
	if err := e.uploader.Delete(ctx, DrawKey(record)); err != nil {
		return fmt.Errorf("withdraw draw %s: %w", record.ID, err)
	}
	return nil
}
