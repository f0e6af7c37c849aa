package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"docvault/internal/apperr"
	"docvault/internal/model"
	"docvault/internal/query"
	"docvault/internal/repository"
	repoMocks "docvault/internal/repository/mocks"
	"docvault/internal/storage"
	storeMocks "docvault/internal/storage/mocks"
)

const (
	docID  = "7f1b3c2e-8d4a-4f6b-9c0d-1e2f3a4b5c6d"
	oldKey = "blobs/0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"
)

var pngHeader = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"

type mockTracker struct {
	mock.Mock
}

func (m *mockTracker) Track(ctx context.Context, added, removed []string) error {
	return m.Called(ctx, added, removed).Error(0)
}

type fixture struct {
	store   *storeMocks.MockStorage
	repo    *repoMocks.MockDocumentRepository
	tracker *mockTracker
	logs    *observer.ObservedLogs
	svc     DocumentService
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.WarnLevel)
	f := &fixture{
		store:   new(storeMocks.MockStorage),
		repo:    new(repoMocks.MockDocumentRepository),
		tracker: new(mockTracker),
		logs:    logs,
		now:     time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	svc := NewDocumentService(f.store, f.repo, WithLogger(zap.New(core)), WithTagTracker(f.tracker), WithPresignTTL(time.Minute))
	svc.(*documentService).now = func() time.Time { return f.now }
	f.svc = svc
	t.Cleanup(func() {
		f.store.AssertExpectations(t)
		f.repo.AssertExpectations(t)
		f.tracker.AssertExpectations(t)
	})
	return f
}

func echoCreate(_ context.Context, d *model.Document) *model.Document {
	out := *d
	out.Version = 1
	return &out
}

func echoUpdate(_ context.Context, d *model.Document, _ int) *model.Document {
	out := *d
	out.Version++
	return &out
}

func isKey(key string) bool { return storage.IsObjectKey(key) }

func existingDoc() *model.Document {
	return &model.Document{
		ID:           docID,
		Title:        "Receipt",
		Tags:         []string{"a", "b"},
		FileName:     "old.pdf",
		Attachment:   &model.Attachment{Name: "old.pdf", ContentType: "application/pdf", SizeBytes: 10, ObjectID: oldKey},
		Version:      3,
		DocumentDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestDocumentService_Create(t *testing.T) {
	t.Run("metadata only", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("Create", mock.Anything, mock.MatchedBy(func(d *model.Document) bool {
			return d.Title == "Warranty" &&
				assert.ObjectsAreEqual([]string{"home", "tv"}, d.Tags) &&
				d.Attachment == nil &&
				d.DocumentDate.Equal(f.now)
		})).Return(echoCreate, nil)
		f.tracker.On("Track", mock.Anything, []string{"home", "tv"}, []string(nil)).Return(nil)

		doc, err := f.svc.Create(context.Background(), CreateDocumentInput{
			Title: "  Warranty ",
			Tags:  []string{"TV", "home", " tv"},
		}, nil)

		require.NoError(t, err)
		assert.Nil(t, doc.Attachment)
		assert.Empty(t, doc.FileName)
	})

	t.Run("with declared content type", func(t *testing.T) {
		f := newFixture(t)
		var putKey string
		f.store.On("Put", mock.Anything, mock.MatchedBy(isKey), mock.Anything, storage.PutObjectOptions{
			Size:        4,
			ContentType: "application/pdf",
			Metadata:    map[string]string{"original-filename": "scan.pdf"},
		}).Run(func(args mock.Arguments) {
			putKey = args.String(1)
		}).Return(storage.ObjectInfo{Size: 4}, nil)
		f.repo.On("Create", mock.Anything, mock.Anything).Return(echoCreate, nil)

		doc, err := f.svc.Create(context.Background(), CreateDocumentInput{Title: "Scan"}, &BlobInput{
			Reader:      strings.NewReader("%PDF"),
			Name:        `C:\Users\me\scan.pdf`,
			ContentType: "application/pdf",
			Size:        4,
		})

		require.NoError(t, err)
		require.NotNil(t, doc.Attachment)
		assert.Equal(t, putKey, doc.Attachment.ObjectID)
		assert.Equal(t, "scan.pdf", doc.Attachment.Name)
		assert.Equal(t, "scan.pdf", doc.FileName)
		assert.Equal(t, int64(4), doc.Attachment.SizeBytes)
	})

	t.Run("sniffs generic content type", func(t *testing.T) {
		f := newFixture(t)
		var body []byte
		f.store.On("Put", mock.Anything, mock.MatchedBy(isKey), mock.Anything, mock.MatchedBy(func(o storage.PutObjectOptions) bool {
			return o.ContentType == "image/png"
		})).Run(func(args mock.Arguments) {
			body, _ = io.ReadAll(args.Get(2).(io.Reader))
		}).Return(storage.ObjectInfo{Size: int64(len(pngHeader))}, nil)
		f.repo.On("Create", mock.Anything, mock.Anything).Return(echoCreate, nil)

		doc, err := f.svc.Create(context.Background(), CreateDocumentInput{Title: "Photo"}, &BlobInput{
			Reader:      strings.NewReader(pngHeader),
			Name:        "photo",
			ContentType: "application/octet-stream",
			Size:        int64(len(pngHeader)),
		})

		require.NoError(t, err)
		assert.Equal(t, "image/png", doc.Attachment.ContentType)
		assert.Equal(t, pngHeader, string(body), "sniffed prefix must be replayed")
	})

	t.Run("invalid metadata uploads nothing", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Create(context.Background(), CreateDocumentInput{Title: "   "}, &BlobInput{
			Reader: strings.NewReader("x"), Name: "x.txt", Size: 1,
		})

		assert.ErrorIs(t, err, apperr.ErrValidation)
		f.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("non-finite price is rejected before any write", func(t *testing.T) {
		f := newFixture(t)
		inf := math.Inf(1)

		_, err := f.svc.Create(context.Background(), CreateDocumentInput{Title: "Receipt", Price: &inf}, &BlobInput{
			Reader: strings.NewReader("x"), Name: "x.txt", Size: 1,
		})

		require.ErrorIs(t, err, apperr.ErrValidation)
		assert.Equal(t, "price: must be a finite number", apperr.FromError(err).Message)
		f.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("overlong tag is rejected", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Create(context.Background(), CreateDocumentInput{
			Title: "Receipt",
			Tags:  []string{strings.Repeat("x", model.MaxTagLength+1)},
		}, nil)

		assert.ErrorIs(t, err, apperr.ErrValidation)
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("negative price", func(t *testing.T) {
		f := newFixture(t)
		price := -1.0

		_, err := f.svc.Create(context.Background(), CreateDocumentInput{Title: "x", Price: &price}, nil)

		require.ErrorIs(t, err, apperr.ErrValidation)
		assert.Equal(t, "price: must be >= 0", apperr.FromError(err).Message)
	})

	t.Run("blob store failure aborts", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, errors.New("connection refused"))

		_, err := f.svc.Create(context.Background(), CreateDocumentInput{Title: "x"}, &BlobInput{
			Reader: strings.NewReader("x"), Name: "x.txt", ContentType: "text/plain", Size: 1,
		})

		assert.ErrorIs(t, err, apperr.ErrStorage)
		assert.Contains(t, err.Error(), "upload to storage: connection refused")
	})

	t.Run("metadata failure removes new blob", func(t *testing.T) {
		f := newFixture(t)
		var putKey string
		f.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { putKey = args.String(1) }).
			Return(storage.ObjectInfo{Size: 1}, nil)
		f.repo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("db fail"))
		f.store.On("Delete", mock.Anything, mock.MatchedBy(func(k string) bool { return k == putKey })).
			Return(errors.New("delete fail"))

		_, err := f.svc.Create(context.Background(), CreateDocumentInput{Title: "x"}, &BlobInput{
			Reader: strings.NewReader("x"), Name: "x.txt", ContentType: "text/plain", Size: 1,
		})

		assert.ErrorIs(t, err, apperr.ErrStorage)
		assert.Contains(t, err.Error(), "db fail")
		require.Equal(t, 1, f.logs.FilterMessage("blob_cleanup_failed").Len())
		assert.Equal(t, putKey, f.logs.All()[0].ContextMap()["object_id"])
	})

	t.Run("tag tracking failure is logged only", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("Create", mock.Anything, mock.Anything).Return(echoCreate, nil)
		f.tracker.On("Track", mock.Anything, []string{"x"}, []string(nil)).Return(errors.New("redis down"))

		_, err := f.svc.Create(context.Background(), CreateDocumentInput{Title: "x", Tags: []string{"x"}}, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, f.logs.FilterMessage("tag_usage_update_failed").Len())
	})
}

func TestDocumentService_Get(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		setup   func(f *fixture)
		wantErr error
	}{
		{
			name: "found",
			id:   docID,
			setup: func(f *fixture) {
				f.repo.On("FindByID", mock.Anything, docID).Return(existingDoc(), nil)
			},
		},
		{
			name:    "malformed id never reaches the store",
			id:      "not-a-uuid",
			setup:   func(f *fixture) {},
			wantErr: apperr.ErrNotFound,
		},
		{
			name: "not found",
			id:   docID,
			setup: func(f *fixture) {
				f.repo.On("FindByID", mock.Anything, docID).Return(nil, sql.ErrNoRows)
			},
			wantErr: apperr.ErrNotFound,
		},
		{
			name: "store error",
			id:   docID,
			setup: func(f *fixture) {
				f.repo.On("FindByID", mock.Anything, docID).Return(nil, errors.New("db fail"))
			},
			wantErr: apperr.ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)

			doc, err := f.svc.Get(context.Background(), tt.id)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, doc)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, docID, doc.ID)
		})
	}
}

func TestDocumentService_List(t *testing.T) {
	t.Run("builds criteria", func(t *testing.T) {
		f := newFixture(t)
		want := query.Build("12,50", []string{"B", "a"}, query.SortPriceAsc)
		f.repo.On("List", mock.Anything, want).Return([]model.Document{{ID: "1"}, {ID: "2"}}, nil)

		docs, err := f.svc.List(context.Background(), ListDocumentsInput{
			Search: " 12,50 ", Tags: []string{"B", "a"}, Sort: "price_asc",
		})

		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})

	t.Run("defaults to newest first", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("List", mock.Anything, mock.MatchedBy(func(c query.Criteria) bool {
			return c.Sort == query.SortCreatedDesc && !c.HasTerm() && len(c.Tags) == 0
		})).Return([]model.Document{}, nil)

		docs, err := f.svc.List(context.Background(), ListDocumentsInput{})

		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("unknown sort", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.List(context.Background(), ListDocumentsInput{Sort: "random"})

		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("store error", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("db fail"))

		_, err := f.svc.List(context.Background(), ListDocumentsInput{})

		assert.ErrorIs(t, err, apperr.ErrStorage)
	})
}

func TestDocumentService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("remove flag drops attachment and old blob", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("FindByID", mock.Anything, docID).Return(existingDoc(), nil)
		f.repo.On("Update", mock.Anything, mock.MatchedBy(func(d *model.Document) bool {
			return d.Attachment == nil && d.FileName == ""
		}), 0).Return(echoUpdate, nil)
		f.store.On("Delete", mock.Anything, oldKey).Return(nil)

		doc, err := f.svc.Update(ctx, docID, UpdateDocumentInput{}, nil, true)

		require.NoError(t, err)
		assert.Nil(t, doc.Attachment)
		assert.Empty(t, doc.FileName)
		assert.Equal(t, 4, doc.Version)
	})

	t.Run("new blob replaces old one", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("FindByID", mock.Anything, docID).Return(existingDoc(), nil)
		f.store.On("Put", mock.Anything, mock.MatchedBy(isKey), mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{Size: 3}, nil)
		f.repo.On("Update", mock.Anything, mock.MatchedBy(func(d *model.Document) bool {
			return d.Attachment != nil && d.Attachment.ObjectID != oldKey && d.FileName == "new.txt"
		}), 0).Return(echoUpdate, nil)
		f.store.On("Delete", mock.Anything, oldKey).Return(nil)

		doc, err := f.svc.Update(ctx, docID, UpdateDocumentInput{}, &BlobInput{
			Reader: strings.NewReader("new"), Name: "new.txt", ContentType: "text/plain", Size: 3,
		}, false)

		require.NoError(t, err)
		assert.NotEqual(t, oldKey, doc.Attachment.ObjectID)
		assert.Equal(t, "text/plain", doc.Attachment.ContentType)
	})

	t.Run("new blob wins over remove flag", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("FindByID", mock.Anything, docID).Return(existingDoc(), nil)
		f.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{Size: 3}, nil)
		f.repo.On("Update", mock.Anything, mock.Anything, 0).Return(echoUpdate, nil)
		f.store.On("Delete", mock.Anything, oldKey).Return(nil)

		doc, err := f.svc.Update(ctx, docID, UpdateDocumentInput{}, &BlobInput{
			Reader: strings.NewReader("new"), Name: "new.txt", ContentType: "text/plain", Size: 3,
		}, true)

		require.NoError(t, err)
		assert.NotNil(t, doc.Attachment)
	})

	t.Run("metadata only keeps attachment", func(t *testing.T) {
		f := newFixture(t)
		title := "Renamed"
		price := 42.0
		f.repo.On("FindByID", mock.Anything, docID).Return(existingDoc(), nil)
		f.repo.On("Update", mock.Anything, mock.MatchedBy(func(d *model.Document) bool {
			return d.Title == "Renamed" && d.Attachment.ObjectID == oldKey && *d.Price == 42 && d.UpdatedAt.Equal(f.now)
		}), 0).Return(echoUpdate, nil)

		doc, err := f.svc.Update(ctx, docID, UpdateDocumentInput{Title: &title, Price: &price}, nil, false)

		require.NoError(t, err)
		assert.Equal(t, oldKey, doc.Attachment.ObjectID)
	})

	t.Run("clear price", func(t *testing.T) {
		f := newFixture(t)
		existing := existingDoc()
		p := 9.5
		existing.Price = &p
		f.repo.On("FindByID", mock.Anything, docID).Return(existing, nil)
		f.repo.On("Update", mock.Anything, mock.MatchedBy(func(d *model.Document) bool {
			return d.Price == nil
		}), 0).Return(echoUpdate, nil)

		doc, err := f.svc.Update(ctx, docID, UpdateDocumentInput{ClearPrice: true}, nil, false)

		require.NoError(t, err)
		assert.Nil(t, doc.Price)
	})

	t.Run("old blob cleanup failure is not fatal", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("FindByID", mock.Anything, docID).Return(existingDoc(), nil)
		f.repo.On("Update", mock.Anything, mock.Anything, 0).Return(echoUpdate, nil)
		f.store.On("Delete", mock.Anything, oldKey).Return(errors.New("store unreachable"))

		doc, err := f.svc.Update(ctx, docID, UpdateDocumentInput{}, nil, true)

		require.NoError(t, err)
		assert.Nil(t, doc.Attachment)
		logged := f.logs.FilterMessage("blob_cleanup_failed").All()
		require.Len(t, logged, 1)
		assert.Equal(t, oldKey, logged[0].ContextMap()["object_id"])
		assert.Equal(t, docID, logged[0].ContextMap()["document_id"])
	})

	t.Run("tag changes are tracked as a diff", func(t *testing.T) {
		f := newFixture(t)
		tags := []string{"C", "b"}
		f.repo.On("FindByID", mock.Anything, docID).Return(existingDoc(), nil)
		f.repo.On("Update", mock.Anything, mock.Anything, 0).Return(echoUpdate, nil)
		f.tracker.On("Track", mock.Anything, []string{"c"}, []string{"a"}).Return(nil)

		doc, err := f.svc.Update(ctx, docID, UpdateDocumentInput{Tags: &tags}, nil, false)

		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c"}, doc.Tags)
	})

	t.Run("stale version rejected before upload", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("FindByID", mock.Anything, docID).Return(existingDoc(), nil)

		_, err := f.svc.Update(ctx, docID, UpdateDocumentInput{ExpectedVersion: 2}, &BlobInput{
			Reader: strings.NewReader("x"), Name: "x", ContentType: "text/plain", Size: 1,
		}, false)

		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("concurrent write detected by store cleans new blob", func(t *testing.T) {
		f := newFixture(t)
		var putKey string
		f.repo.On("FindByID", mock.Anything, docID).Return(existingDoc(), nil)
		f.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { putKey = args.String(1) }).
			Return(storage.ObjectInfo{Size: 1}, nil)
		f.repo.On("Update", mock.Anything, mock.Anything, 3).Return(nil, repository.ErrVersionMismatch)
		f.store.On("Delete", mock.Anything, mock.MatchedBy(func(k string) bool { return k == putKey })).Return(nil)

		_, err := f.svc.Update(ctx, docID, UpdateDocumentInput{ExpectedVersion: 3}, &BlobInput{
			Reader: strings.NewReader("x"), Name: "x", ContentType: "text/plain", Size: 1,
		}, false)

		assert.ErrorIs(t, err, apperr.ErrConflict)
		f.store.AssertNotCalled(t, "Delete", mock.Anything, oldKey)
	})

	t.Run("invalid merge uploads nothing", func(t *testing.T) {
		f := newFixture(t)
		empty := ""
		f.repo.On("FindByID", mock.Anything, docID).Return(existingDoc(), nil)

		_, err := f.svc.Update(ctx, docID, UpdateDocumentInput{Title: &empty}, &BlobInput{
			Reader: strings.NewReader("x"), Name: "x", Size: 1,
		}, false)

		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("missing document", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("FindByID", mock.Anything, docID).Return(nil, sql.ErrNoRows)

		_, err := f.svc.Update(ctx, docID, UpdateDocumentInput{}, nil, true)

		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("deleted between read and write", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("FindByID", mock.Anything, docID).Return(existingDoc(), nil)
		f.repo.On("Update", mock.Anything, mock.Anything, 0).Return(nil, sql.ErrNoRows)

		_, err := f.svc.Update(ctx, docID, UpdateDocumentInput{}, nil, true)

		assert.ErrorIs(t, err, apperr.ErrNotFound)
		f.store.AssertNotCalled(t, "Delete", mock.Anything, oldKey)
	})
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes record then blob", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("FindByID", mock.Anything, docID).Return(existingDoc(), nil)
		f.repo.On("Delete", mock.Anything, docID).Return(nil)
		f.store.On("Delete", mock.Anything, oldKey).Return(nil)
		f.tracker.On("Track", mock.Anything, []string(nil), []string{"a", "b"}).Return(nil)

		require.NoError(t, f.svc.Delete(ctx, docID))
	})

	t.Run("unreachable blob store still succeeds", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("FindByID", mock.Anything, docID).Return(existingDoc(), nil)
		f.repo.On("Delete", mock.Anything, docID).Return(nil)
		f.store.On("Delete", mock.Anything, oldKey).Return(errors.New("dial tcp: connection refused"))
		f.tracker.On("Track", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		require.NoError(t, f.svc.Delete(ctx, docID))
		assert.Equal(t, 1, f.logs.FilterMessage("blob_cleanup_failed").Len())
	})

	t.Run("no attachment", func(t *testing.T) {
		f := newFixture(t)
		d := existingDoc()
		d.Attachment, d.Tags = nil, []string{}
		f.repo.On("FindByID", mock.Anything, docID).Return(d, nil)
		f.repo.On("Delete", mock.Anything, docID).Return(nil)

		require.NoError(t, f.svc.Delete(ctx, docID))
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("FindByID", mock.Anything, docID).Return(nil, sql.ErrNoRows)

		assert.ErrorIs(t, f.svc.Delete(ctx, docID), apperr.ErrNotFound)
	})

	t.Run("record store failure keeps blob", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("FindByID", mock.Anything, docID).Return(existingDoc(), nil)
		f.repo.On("Delete", mock.Anything, docID).Return(errors.New("db fail"))

		assert.ErrorIs(t, f.svc.Delete(ctx, docID), apperr.ErrStorage)
	})
}

func TestDocumentService_OpenBlob(t *testing.T) {
	ctx := context.Background()

	t.Run("streams with original name", func(t *testing.T) {
		f := newFixture(t)
		body := io.NopCloser(strings.NewReader("data"))
		f.store.On("Get", mock.Anything, oldKey).Return(body, storage.ObjectInfo{
			Size: 4, ContentType: "application/pdf", Metadata: map[string]string{"Original-Filename": "old.pdf"},
		}, nil)

		b, err := f.svc.OpenBlob(ctx, oldKey)

		require.NoError(t, err)
		assert.Equal(t, "old.pdf", b.Name)
		assert.Equal(t, "application/pdf", b.ContentType)
		assert.Equal(t, int64(4), b.Size)
	})

	t.Run("missing object", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("Get", mock.Anything, oldKey).Return(nil, storage.ObjectInfo{}, storage.ErrObjectNotFound)

		_, err := f.svc.OpenBlob(ctx, oldKey)

		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("foreign key shape", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.OpenBlob(ctx, "../secret")

		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("store down", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("Get", mock.Anything, oldKey).Return(nil, storage.ObjectInfo{}, errors.New("timeout"))

		_, err := f.svc.OpenBlob(ctx, oldKey)

		assert.ErrorIs(t, err, apperr.ErrStorage)
	})
}

func TestDocumentService_PresignBlob(t *testing.T) {
	ctx := context.Background()

	t.Run("signed", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("Stat", mock.Anything, oldKey).Return(storage.ObjectInfo{Key: oldKey}, nil)
		f.store.On("PresignGet", mock.Anything, oldKey, time.Minute).Return("http://signed", nil)

		u, err := f.svc.PresignBlob(ctx, oldKey)

		require.NoError(t, err)
		assert.Equal(t, "http://signed", u)
	})

	t.Run("missing", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("Stat", mock.Anything, oldKey).Return(storage.ObjectInfo{}, storage.ErrObjectNotFound)

		_, err := f.svc.PresignBlob(ctx, oldKey)

		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestSanitizeFileName(t *testing.T) {
	tests := map[string]string{
		"report.pdf":         "report.pdf",
		`C:\docs\report.pdf`: "report.pdf",
		"../../etc/passwd":   "passwd",
		"":                   "file",
		"/":                  "file",
		"  spaced name.txt ": "spaced name.txt",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeFileName(in), in)
	}
}
