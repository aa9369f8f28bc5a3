package workers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"axles_ingest/models"
)

type fakeImageStore struct {
	pending    []models.ListingImage
	thumbnails map[uuid.UUID]string
	deleted    map[uuid.UUID]bool
}

func newFakeImageStore(images ...models.ListingImage) *fakeImageStore {
	return &fakeImageStore{
		pending:    images,
		thumbnails: make(map[uuid.UUID]string),
		deleted:    make(map[uuid.UUID]bool),
	}
}

func (f *fakeImageStore) GetUnverifiedImages(_ context.Context, limit int) ([]models.ListingImage, error) {
	var out []models.ListingImage
	for _, img := range f.pending {
		if f.deleted[img.ID] {
			continue
		}
		if _, done := f.thumbnails[img.ID]; done {
			continue
		}
		out = append(out, img)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeImageStore) SetImageThumbnail(_ context.Context, id uuid.UUID, url string) error {
	f.thumbnails[id] = url
	return nil
}

func (f *fakeImageStore) DeleteListingImage(_ context.Context, id uuid.UUID) error {
	f.deleted[id] = true
	return nil
}

func TestProcessBatchVerifiesAndDeletes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/live.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte("jpegdata"))
		case "/dead.jpg":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	live := models.ListingImage{ID: uuid.New(), ListingID: uuid.New(), URL: server.URL + "/live.jpg", CreatedAt: time.Now()}
	dead := models.ListingImage{ID: uuid.New(), ListingID: uuid.New(), URL: server.URL + "/dead.jpg", CreatedAt: time.Now()}
	flaky := models.ListingImage{ID: uuid.New(), ListingID: uuid.New(), URL: server.URL + "/error.jpg", CreatedAt: time.Now()}

	store := newFakeImageStore(live, dead, flaky)
	worker := NewImageWorker(store, nil)

	worker.processBatch(context.Background(), 10)

	// Live image keeps its original URL without an uploader.
	if got := store.thumbnails[live.ID]; got != live.URL {
		t.Errorf("expected live image verified with original URL, got %q", got)
	}
	if !store.deleted[dead.ID] {
		t.Error("404 image should be deleted")
	}
	// A 500 is transient: no delete, no thumbnail, retried next batch.
	if store.deleted[flaky.ID] {
		t.Error("transient failure must not delete the row")
	}
	if _, ok := store.thumbnails[flaky.ID]; ok {
		t.Error("transient failure must not mark verified")
	}
}

func TestGuessExtension(t *testing.T) {
	cases := []struct {
		url, contentType, want string
	}{
		{"https://cdn.example.com/a.JPG", "", ".jpg"},
		{"https://cdn.example.com/a", "image/png", ".png"},
		{"https://cdn.example.com/a.php", "image/webp", ".webp"},
		{"https://cdn.example.com/a", "", ".jpg"},
	}
	for _, c := range cases {
		if got := guessExtension(c.url, c.contentType); got != c.want {
			t.Errorf("guessExtension(%q, %q) = %q, want %q", c.url, c.contentType, got, c.want)
		}
	}
}
