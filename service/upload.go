package service

import (
	"context"
	"mime"
	"strings"
	"time"

	"github.com/AnTengye/formrelay/model"
	"github.com/google/uuid"
)

// allowedUploadTypes maps accepted declared MIME types to the stored extension.
var allowedUploadTypes = map[string]string{
	"application/pdf":    ".pdf",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// UploadGate checks file fields against the type allow-list and moves
// accepted files into permanent storage.
type UploadGate struct {
	storage FileStorage
	now     func() time.Time
}

func NewUploadGate(storage FileStorage) *UploadGate {
	return &UploadGate{storage: storage, now: time.Now}
}

// Accept stores part for field. It returns (nil, nil) when an optional file
// is absent. Errors are always *model.UploadError.
func (g *UploadGate) Accept(ctx context.Context, form string, field model.FieldDefinition, part *model.FilePart) (*model.StoredFile, error) {
	if part == nil || part.Filename == "" || part.Size == 0 {
		if field.Required {
			return nil, &model.UploadError{Field: field.ID, Kind: model.UploadMissing}
		}
		return nil, nil
	}

	contentType := normalizeMediaType(part.ContentType)
	ext, ok := allowedUploadTypes[contentType]
	if !ok {
		return nil, &model.UploadError{Field: field.ID, Kind: model.UploadDisallowedType, ContentType: part.ContentType}
	}

	rc, err := part.Open()
	if err != nil {
		return nil, &model.UploadError{Field: field.ID, Kind: model.UploadStorageFailure, Err: err}
	}
	defer rc.Close()

	objectName := strings.Join([]string{form, g.now().UTC().Format("2006/01"), uuid.NewString() + ext}, "/")
	stored, err := g.storage.Store(ctx, objectName, rc, part.Size, contentType)
	if err != nil {
		return nil, &model.UploadError{Field: field.ID, Kind: model.UploadStorageFailure, Err: err}
	}
	stored.Field = field.ID
	return &stored, nil
}

// Discard removes files stored for a submission that was rejected.
func (g *UploadGate) Discard(ctx context.Context, files []model.StoredFile) error {
	var firstErr error
	for _, f := range files {
		if err := g.storage.Delete(ctx, f); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func normalizeMediaType(declared string) string {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(declared))
	}
	return mediaType
}
