package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"docvault/internal/apperr"
	"docvault/internal/model"
	"docvault/internal/query"
	"docvault/internal/repository"
	"docvault/internal/storage"
)

const (
	defaultContentType = "application/octet-stream"
	sniffLen           = 3072
	metaOriginalName   = "original-filename"
)

var tracer = otel.Tracer("docvault/service")

// BlobInput is an uploaded file on its way into the blob store.
type BlobInput struct {
	Reader      io.Reader
	Name        string
	ContentType string
	Size        int64
}

// CreateDocumentInput is the metadata for a new document. A nil
// DocumentDate defaults to the creation time.
type CreateDocumentInput struct {
	Title        string
	Description  string
	Tags         []string
	Price        *float64
	DocumentDate *time.Time
}

// UpdateDocumentInput is a partial update; nil fields keep their stored
// value. ClearPrice removes the price. A non-zero ExpectedVersion makes the
// update conditional on the stored version.
type UpdateDocumentInput struct {
	Title           *string
	Description     *string
	Tags            *[]string
	Price           *float64
	ClearPrice      bool
	DocumentDate    *time.Time
	ExpectedVersion int
}

// ListDocumentsInput carries the raw search request.
type ListDocumentsInput struct {
	Search string
	Tags   []string
	Sort   string
}

// Blob is an open attachment stream. Callers must close Body.
type Blob struct {
	Body        io.ReadCloser
	Name        string
	ContentType string
	Size        int64
}

// TagTracker keeps tag usage counts in step with document writes.
type TagTracker interface {
	Track(ctx context.Context, added, removed []string) error
}

// DocumentService defines the document and attachment use cases.
type DocumentService interface {
	// Create stores the optional blob first, then the metadata. If the
	// metadata write fails the new blob is removed again.
	Create(ctx context.Context, in CreateDocumentInput, blob *BlobInput) (*model.Document, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// List returns documents matching the search term and every requested tag.
	List(ctx context.Context, in ListDocumentsInput) ([]model.Document, error)

	// Update merges in, then replaces or removes the attachment. A superseded
	// blob is deleted after the metadata write; that deletion never fails the call.
	Update(ctx context.Context, id string, in UpdateDocumentInput, blob *BlobInput, removeBlob bool) (*model.Document, error)

	// Delete removes the record, then its blob on a best-effort basis.
	Delete(ctx context.Context, id string) error

	// OpenBlob streams an attachment by object ID.
	OpenBlob(ctx context.Context, objectID string) (*Blob, error)

	// PresignBlob returns a time-limited download URL for an attachment.
	PresignBlob(ctx context.Context, objectID string) (string, error)
}

type documentService struct {
	store      storage.Storage
	repo       repository.DocumentRepository
	tags       TagTracker
	validate   *validator.Validate
	logger     *zap.Logger
	presignTTL time.Duration
	now        func() time.Time
}

// DocumentOption customises a DocumentService.
type DocumentOption func(*documentService)

// WithLogger sets the logger used for best-effort cleanup failures.
func WithLogger(l *zap.Logger) DocumentOption {
	return func(s *documentService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTagTracker wires tag usage bookkeeping into the write path.
func WithTagTracker(t TagTracker) DocumentOption {
	return func(s *documentService) { s.tags = t }
}

// WithPresignTTL sets the lifetime of presigned download URLs.
func WithPresignTTL(d time.Duration) DocumentOption {
	return func(s *documentService) {
		if d > 0 {
			s.presignTTL = d
		}
	}
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, opts ...DocumentOption) DocumentService {
	s := &documentService{
		store:      store,
		repo:       repo,
		validate:   model.NewValidator(),
		logger:     zap.NewNop(),
		presignTTL: 15 * time.Minute,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *documentService) Create(ctx context.Context, in CreateDocumentInput, blob *BlobInput) (_ *model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Create", trace.WithAttributes(attribute.Bool("document.has_blob", blob != nil)))
	defer func() { endSpan(span, err) }()

	now := s.now()
	doc := &model.Document{
		ID:           uuid.NewString(),
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Tags:         model.NormalizeTags(in.Tags),
		Price:        in.Price,
		DocumentDate: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.DocumentDate != nil {
		doc.DocumentDate = in.DocumentDate.UTC()
	}
	if err := model.ValidateDocument(s.validate, doc); err != nil {
		return nil, err
	}

	if blob != nil {
		att, err := s.putBlob(ctx, blob)
		if err != nil {
			return nil, err
		}
		doc.Attachment = att
		doc.FileName = att.Name
	}

	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		if doc.Attachment != nil {
			s.cleanupBlob(ctx, doc.ID, doc.Attachment.ObjectID)
		}
		return nil, apperr.Wrap(apperr.ErrStorage, fmt.Errorf("save document: %w", err))
	}

	s.track(ctx, stored.ID, stored.Tags, nil)
	return stored, nil
}

func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, documentNotFound()
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return doc, nil
}

func (s *documentService) List(ctx context.Context, in ListDocumentsInput) (_ []model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.List")
	defer func() { endSpan(span, err) }()

	sort, ok := query.ParseSort(in.Sort)
	if !ok {
		return nil, apperr.Validation("sort: unknown value %q", in.Sort)
	}
	c := query.Build(in.Search, in.Tags, sort)
	span.SetAttributes(attribute.Bool("query.has_term", c.HasTerm()), attribute.Int("query.tags", len(c.Tags)))

	docs, err := s.repo.List(ctx, c)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrStorage, fmt.Errorf("list documents: %w", err))
	}
	return docs, nil
}

func (s *documentService) Update(ctx context.Context, id string, in UpdateDocumentInput, blob *BlobInput, removeBlob bool) (_ *model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Update", trace.WithAttributes(
		attribute.String("document.id", id),
		attribute.Bool("document.has_blob", blob != nil),
		attribute.Bool("document.remove_blob", removeBlob),
	))
	defer func() { endSpan(span, err) }()

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.ExpectedVersion != 0 && in.ExpectedVersion != existing.Version {
		return nil, versionConflict()
	}

	doc := *existing
	applyUpdate(&doc, in)
	doc.UpdatedAt = s.now()
	if err := model.ValidateDocument(s.validate, &doc); err != nil {
		return nil, err
	}

	oldObjectID := existing.ObjectID()
	switch {
	case blob != nil:
		att, err := s.putBlob(ctx, blob)
		if err != nil {
			return nil, err
		}
		doc.Attachment = att
		doc.FileName = att.Name
	case removeBlob:
		doc.Attachment = nil
		doc.FileName = ""
	}

	stored, err := s.repo.Update(ctx, &doc, in.ExpectedVersion)
	if err != nil {
		if blob != nil {
			s.cleanupBlob(ctx, id, doc.Attachment.ObjectID)
		}
		switch {
		case errors.Is(err, repository.ErrVersionMismatch):
			return nil, versionConflict()
		case errors.Is(err, sql.ErrNoRows):
			return nil, documentNotFound()
		}
		return nil, apperr.Wrap(apperr.ErrStorage, fmt.Errorf("update document: %w", err))
	}

	if oldObjectID != "" && (blob != nil || removeBlob) && oldObjectID != stored.ObjectID() {
		s.cleanupBlob(ctx, id, oldObjectID)
	}

	added, removed := model.DiffTags(existing.Tags, stored.Tags)
	s.track(ctx, id, added, removed)
	return stored, nil
}

func applyUpdate(doc *model.Document, in UpdateDocumentInput) {
	if in.Title != nil {
		doc.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		doc.Description = strings.TrimSpace(*in.Description)
	}
	if in.Tags != nil {
		doc.Tags = model.NormalizeTags(*in.Tags)
	}
	switch {
	case in.ClearPrice:
		doc.Price = nil
	case in.Price != nil:
		p := *in.Price
		doc.Price = &p
	}
	if in.DocumentDate != nil {
		doc.DocumentDate = in.DocumentDate.UTC()
	}
}

func (s *documentService) Delete(ctx context.Context, id string) (err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Delete", trace.WithAttributes(attribute.String("document.id", id)))
	defer func() { endSpan(span, err) }()

	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err)
	}

	if objectID := doc.ObjectID(); objectID != "" {
		s.cleanupBlob(ctx, id, objectID)
	}
	s.track(ctx, id, nil, doc.Tags)
	return nil
}

func (s *documentService) OpenBlob(ctx context.Context, objectID string) (*Blob, error) {
	if !storage.IsObjectKey(objectID) {
		return nil, fileNotFound()
	}
	body, info, err := s.store.Get(ctx, objectID)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fileNotFound()
		}
		return nil, apperr.Wrap(apperr.ErrStorage, fmt.Errorf("open blob: %w", err))
	}
	ct := info.ContentType
	if ct == "" {
		ct = defaultContentType
	}
	return &Blob{
		Body:        body,
		Name:        metadataValue(info.Metadata, metaOriginalName),
		ContentType: ct,
		Size:        info.Size,
	}, nil
}

func (s *documentService) PresignBlob(ctx context.Context, objectID string) (string, error) {
	if !storage.IsObjectKey(objectID) {
		return "", fileNotFound()
	}
	if _, err := s.store.Stat(ctx, objectID); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return "", fileNotFound()
		}
		return "", apperr.Wrap(apperr.ErrStorage, fmt.Errorf("stat blob: %w", err))
	}
	u, err := s.store.PresignGet(ctx, objectID, s.presignTTL)
	if err != nil {
		return "", apperr.Wrap(apperr.ErrStorage, fmt.Errorf("presign blob: %w", err))
	}
	return u, nil
}

// putBlob streams the upload under a fresh object key.
func (s *documentService) putBlob(ctx context.Context, in *BlobInput) (*model.Attachment, error) {
	if in.Reader == nil {
		return nil, apperr.Validation("file: missing content")
	}
	name := SanitizeFileName(in.Name)
	r, contentType, err := detectContentType(in.Reader, in.ContentType)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrStorage, fmt.Errorf("read upload: %w", err))
	}

	key := storage.NewObjectKey()
	info, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: contentType,
		Metadata:    map[string]string{metaOriginalName: name},
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrStorage, fmt.Errorf("upload to storage: %w", err))
	}

	size := info.Size
	if size <= 0 {
		size = in.Size
	}
	if size < 0 {
		size = 0
	}
	return &model.Attachment{
		Name:        name,
		ContentType: contentType,
		SizeBytes:   size,
		ObjectID:    key,
	}, nil
}

// cleanupBlob deletes a blob that is no longer referenced. Failures leave an
// orphan, which the sweeper collects later.
func (s *documentService) cleanupBlob(ctx context.Context, documentID, objectID string) {
	if err := s.store.Delete(context.WithoutCancel(ctx), objectID); err != nil {
		s.logger.Warn("blob_cleanup_failed",
			zap.String("document_id", documentID),
			zap.String("object_id", objectID),
			zap.Error(err),
		)
	}
}

func (s *documentService) track(ctx context.Context, documentID string, added, removed []string) {
	if s.tags == nil || (len(added) == 0 && len(removed) == 0) {
		return
	}
	if err := s.tags.Track(context.WithoutCancel(ctx), added, removed); err != nil {
		s.logger.Warn("tag_usage_update_failed",
			zap.String("document_id", documentID),
			zap.Strings("added", added),
			zap.Strings("removed", removed),
			zap.Error(err),
		)
	}
}

// detectContentType keeps a specific client-declared type and sniffs the
// leading bytes otherwise. The returned reader replays the sniffed prefix.
func detectContentType(r io.Reader, declared string) (io.Reader, string, error) {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != defaultContentType {
		return r, declared, nil
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, "", err
	}
	head = head[:n]
	ct := defaultContentType
	if n > 0 {
		ct = mimetype.Detect(head).String()
	}
	return io.MultiReader(bytes.NewReader(head), r), ct, nil
}

// SanitizeFileName strips any client path from an upload name.
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), `\`, "/")
	base := path.Base(name)
	if base == "." || base == "/" || base == "" {
		return "file"
	}
	return base
}

func metadataValue(meta map[string]string, key string) string {
	for k, v := range meta {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func mapRepoError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return documentNotFound()
	}
	return apperr.Wrap(apperr.ErrStorage, err)
}

func documentNotFound() *apperr.Error { return apperr.Clone(apperr.ErrNotFound, "document not found") }
func fileNotFound() *apperr.Error     { return apperr.Clone(apperr.ErrNotFound, "file not found") }
func versionConflict() *apperr.Error {
	return apperr.Clone(apperr.ErrConflict, "document was modified by another request")
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
