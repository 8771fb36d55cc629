package statuslog

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Lllllllleong/watermarkflow/internal/models"
)

// Firestore keeps the status on the file's document in a collection, one
// document per input file name.
type Firestore struct {
	client     *firestore.Client
	collection string
	logger     *slog.Logger
}

func NewFirestore(client *firestore.Client, collection string, logger *slog.Logger) *Firestore {
	return &Firestore{client: client, collection: collection, logger: logger}
}

// docID escapes slashes, which Firestore treats as path separators.
func docID(fileName string) string {
	return url.PathEscape(fileName)
}

// Record updates the file's document. Like the SQL backends it never creates a
// document that the upstream upload did not register.
func (f *Firestore) Record(ctx context.Context, rec models.StatusRecord) error {
	docRef := f.client.Collection(f.collection).Doc(docID(rec.FileName))
	updates := []firestore.Update{
		{Path: "watermarkDate", Value: rec.WatermarkDate},
		{Path: "watermarkDatetime", Value: rec.WatermarkDateTime},
		{Path: "watermarkStatus", Value: string(rec.WatermarkStatus)},
		{Path: "watermarkZonePath", Value: rec.WatermarkZonePath},
	}
	if rec.JobID != "" {
		updates = append(updates, firestore.Update{Path: "jobId", Value: rec.JobID})
	}

	_, err := docRef.Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		f.logger.Warn("No translation log document for file; nothing updated.", "fileName", rec.FileName)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update status document: %w", err)
	}
	return nil
}
