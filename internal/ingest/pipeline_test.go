package ingest

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/aremuc/home-monitor-iot/internal/store"
)

// --- Mocks ---

type mockRecords struct {
	createFn  func(ctx context.Context, storedName string) (int64, error)
	addTagsFn func(ctx context.Context, imageID int64, tags []string) error

	created []string
	tagged  map[int64][]string
}

func newMockRecords() *mockRecords {
	return &mockRecords{tagged: make(map[int64][]string)}
}

func (m *mockRecords) CreateImage(ctx context.Context, storedName string) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, storedName)
	}
	m.created = append(m.created, storedName)
	return int64(len(m.created)), nil
}

func (m *mockRecords) AddTags(ctx context.Context, imageID int64, tags []string) error {
	if m.addTagsFn != nil {
		return m.addTagsFn(ctx, imageID, tags)
	}
	m.tagged[imageID] = tags
	return nil
}

func (m *mockRecords) TagsInRange(ctx context.Context, from, to time.Time) ([]string, error) {
	return nil, nil
}

func (m *mockRecords) HasTagInRange(ctx context.Context, tag string, from, to time.Time) (bool, error) {
	return false, nil
}

func (m *mockRecords) PopularTags(ctx context.Context, limit int) ([]store.TagCount, error) {
	return nil, nil
}

func (m *mockRecords) Ping(ctx context.Context) error { return nil }
func (m *mockRecords) Close() error                   { return nil }

type mockBlobs struct {
	removeFn func(ctx context.Context, name string) error

	stored  map[string][]byte
	removed []string
}

func newMockBlobs() *mockBlobs {
	return &mockBlobs{stored: make(map[string][]byte)}
}

func (m *mockBlobs) Put(ctx context.Context, name string, data []byte, contentType string) error {
	m.stored[name] = data
	return nil
}

func (m *mockBlobs) Get(ctx context.Context, name string) ([]byte, string, error) {
	data, ok := m.stored[name]
	if !ok {
		return nil, "", errors.New("not found")
	}
	return data, "image/jpeg", nil
}

func (m *mockBlobs) Remove(ctx context.Context, name string) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, name)
	}
	delete(m.stored, name)
	m.removed = append(m.removed, name)
	return nil
}

type classifierFunc func(ctx context.Context, data []byte, filename string) ([]string, error)

func (f classifierFunc) Tags(ctx context.Context, data []byte, filename string) ([]string, error) {
	return f(ctx, data, filename)
}

type publisherFunc func(ctx context.Context, imageID int64, storedName string, tags []string) error

func (f publisherFunc) ImageIngested(ctx context.Context, imageID int64, storedName string, tags []string) error {
	return f(ctx, imageID, storedName, tags)
}

func fixedTags(tags []string, err error) classifierFunc {
	return func(ctx context.Context, data []byte, filename string) ([]string, error) {
		return tags, err
	}
}

func jpegSubmission() Submission {
	return Submission{
		Filename:    "backyard.jpg",
		ContentType: "image/jpeg",
		Data:        []byte{0xff, 0xd8, 0xff},
	}
}

// --- Tests ---

func TestIngest_Success(t *testing.T) {
	records := newMockRecords()
	blobs := newMockBlobs()
	p := NewPipeline(records, blobs, fixedTags([]string{"dog", "person"}, nil), nil, zerolog.Nop())

	result, err := p.Ingest(context.Background(), jpegSubmission())
	if err != nil {
		t.Fatalf("Ingest error: %v", err)
	}

	if result.ImageID != 1 {
		t.Errorf("ImageID = %d, want 1", result.ImageID)
	}
	if result.StoredName == "" || result.StoredName == "backyard.jpg" {
		t.Errorf("StoredName = %q, want generated name", result.StoredName)
	}
	if !reflect.DeepEqual(result.Tags, []string{"dog", "person"}) {
		t.Errorf("Tags = %v, want [dog person]", result.Tags)
	}
	if _, ok := blobs.stored[result.StoredName]; !ok {
		t.Errorf("blob %q not persisted", result.StoredName)
	}
	if !reflect.DeepEqual(records.tagged[1], []string{"dog", "person"}) {
		t.Errorf("persisted tags = %v, want [dog person]", records.tagged[1])
	}
}

func TestIngest_GeneratedNamesAreUnique(t *testing.T) {
	records := newMockRecords()
	blobs := newMockBlobs()
	p := NewPipeline(records, blobs, fixedTags(nil, nil), nil, zerolog.Nop())

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		result, err := p.Ingest(context.Background(), jpegSubmission())
		if err != nil {
			t.Fatalf("Ingest #%d error: %v", i, err)
		}
		if seen[result.StoredName] {
			t.Fatalf("stored name %q repeated", result.StoredName)
		}
		seen[result.StoredName] = true
	}
}

func TestIngest_EmptyTagSetStillPersists(t *testing.T) {
	records := newMockRecords()
	blobs := newMockBlobs()
	p := NewPipeline(records, blobs, fixedTags(nil, nil), nil, zerolog.Nop())

	result, err := p.Ingest(context.Background(), jpegSubmission())
	if err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	if result.Tags == nil || len(result.Tags) != 0 {
		t.Errorf("Tags = %v, want empty non-nil slice", result.Tags)
	}
	if len(records.created) != 1 {
		t.Errorf("records created = %d, want 1", len(records.created))
	}
}

func TestIngest_RejectsNonImageContentType(t *testing.T) {
	records := newMockRecords()
	blobs := newMockBlobs()
	p := NewPipeline(records, blobs, fixedTags(nil, nil), nil, zerolog.Nop())

	for _, contentType := range []string{"", "text/plain", "application/octet-stream"} {
		_, err := p.Ingest(context.Background(), Submission{
			Filename:    "notes.txt",
			ContentType: contentType,
			Data:        []byte("hello"),
		})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Ingest(%q) = %v, want ErrInvalidInput", contentType, err)
		}
	}
	if len(blobs.stored) != 0 {
		t.Errorf("blobs stored = %d, want 0", len(blobs.stored))
	}
	if len(records.created) != 0 {
		t.Errorf("records created = %d, want 0", len(records.created))
	}
}

func TestIngest_ClassifierFailureRollsBackBlob(t *testing.T) {
	records := newMockRecords()
	blobs := newMockBlobs()
	classifierErr := errors.New("upstream unavailable")
	p := NewPipeline(records, blobs, fixedTags(nil, classifierErr), nil, zerolog.Nop())

	_, err := p.Ingest(context.Background(), jpegSubmission())

	var pipeErr *PipelineError
	if !errors.As(err, &pipeErr) {
		t.Fatalf("error = %v, want *PipelineError", err)
	}
	if !errors.Is(err, classifierErr) {
		t.Errorf("error chain does not include the classifier cause: %v", err)
	}
	if len(blobs.stored) != 0 {
		t.Errorf("blob left behind after rollback: %v", blobs.stored)
	}
	if len(blobs.removed) != 1 {
		t.Errorf("removed %d blobs, want 1", len(blobs.removed))
	}
	if len(records.created) != 0 {
		t.Errorf("records created = %d, want 0", len(records.created))
	}
}

func TestIngest_RollbackRemovalFailureIsNotEscalated(t *testing.T) {
	records := newMockRecords()
	blobs := newMockBlobs()
	blobs.removeFn = func(ctx context.Context, name string) error {
		return errors.New("disk detached")
	}
	classifierErr := errors.New("upstream unavailable")
	p := NewPipeline(records, blobs, fixedTags(nil, classifierErr), nil, zerolog.Nop())

	_, err := p.Ingest(context.Background(), jpegSubmission())
	if !errors.Is(err, classifierErr) {
		t.Errorf("error = %v, want the classification cause, not the cleanup one", err)
	}
}

func TestIngest_RecordFailureLeavesBlobOrphaned(t *testing.T) {
	records := newMockRecords()
	records.createFn = func(ctx context.Context, storedName string) (int64, error) {
		return 0, errors.New("database locked")
	}
	blobs := newMockBlobs()
	p := NewPipeline(records, blobs, fixedTags([]string{"dog"}, nil), nil, zerolog.Nop())

	_, err := p.Ingest(context.Background(), jpegSubmission())
	if err == nil {
		t.Fatal("expected error from record creation")
	}

	// The blob stays on disk; that window is deliberate.
	if len(blobs.stored) != 1 {
		t.Errorf("blobs stored = %d, want 1 (orphan kept)", len(blobs.stored))
	}
	if len(blobs.removed) != 0 {
		t.Errorf("blob was removed, want orphan kept")
	}
}

func TestIngest_PublishesEventAfterSuccess(t *testing.T) {
	records := newMockRecords()
	blobs := newMockBlobs()

	var published bool
	pub := publisherFunc(func(ctx context.Context, imageID int64, storedName string, tags []string) error {
		published = true
		if imageID != 1 {
			t.Errorf("event imageID = %d, want 1", imageID)
		}
		if !reflect.DeepEqual(tags, []string{"person"}) {
			t.Errorf("event tags = %v, want [person]", tags)
		}
		return nil
	})

	p := NewPipeline(records, blobs, fixedTags([]string{"person"}, nil), pub, zerolog.Nop())
	if _, err := p.Ingest(context.Background(), jpegSubmission()); err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	if !published {
		t.Error("event not published")
	}
}

func TestIngest_PublishFailureDoesNotFailIngestion(t *testing.T) {
	records := newMockRecords()
	blobs := newMockBlobs()
	pub := publisherFunc(func(ctx context.Context, imageID int64, storedName string, tags []string) error {
		return errors.New("stream down")
	})

	p := NewPipeline(records, blobs, fixedTags([]string{"dog"}, nil), pub, zerolog.Nop())
	if _, err := p.Ingest(context.Background(), jpegSubmission()); err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
}
