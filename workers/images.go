package workers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"axles_ingest/models"
)

// ImageStore is the slice of the Postgres store the image worker needs.
type ImageStore interface {
	GetUnverifiedImages(ctx context.Context, limit int) ([]models.ListingImage, error)
	SetImageThumbnail(ctx context.Context, id uuid.UUID, thumbnailURL string) error
	DeleteListingImage(ctx context.Context, id uuid.UUID) error
}

// Uploader mirrors a verified image into object storage and returns its
// public URL.
type Uploader interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error)
}

// ImageWorker verifies imported image URLs in the background. Dead links
// are deleted, live ones are mirrored to S3 so the marketplace never
// hotlinks a dealer site.
type ImageWorker struct {
	store      ImageStore
	httpClient *http.Client
	uploader   Uploader
	triggerCh  chan struct{}
}

func NewImageWorker(store ImageStore, uploader Uploader) *ImageWorker {
	return &ImageWorker{
		store:      store,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		uploader:   uploader,
		triggerCh:  make(chan struct{}, 1),
	}
}

// Trigger kicks a batch outside the regular interval.
func (w *ImageWorker) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// Run starts the worker loop.
func (w *ImageWorker) Run(ctx context.Context, batchSize int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Image worker stopping")
			return
		case <-w.triggerCh:
			w.processBatch(ctx, batchSize)
		case <-ticker.C:
			w.processBatch(ctx, batchSize)
		}
	}
}

func (w *ImageWorker) processBatch(ctx context.Context, batchSize int) {
	images, err := w.store.GetUnverifiedImages(ctx, batchSize)
	if err != nil {
		log.Printf("Image worker: query error: %v", err)
		return
	}
	if len(images) == 0 {
		return
	}

	log.Printf("Image worker: verifying %d images", len(images))

	var verified, deleted, failed int
	for i := range images {
		img := &images[i]

		publicURL, err := w.verify(ctx, img)
		if err != nil {
			if isDeadLink(err) {
				if delErr := w.store.DeleteListingImage(ctx, img.ID); delErr != nil {
					log.Printf("Image worker: delete %s: %v", img.ID, delErr)
					failed++
				} else {
					deleted++
				}
			} else {
				// Transient failure: leave the row for the next batch.
				log.Printf("Image worker: failed %s: %v", img.URL, err)
				failed++
			}
			continue
		}

		if err := w.store.SetImageThumbnail(ctx, img.ID, publicURL); err != nil {
			log.Printf("Image worker: update %s: %v", img.ID, err)
			failed++
			continue
		}
		verified++

		time.Sleep(200 * time.Millisecond)
	}

	log.Printf("Image worker: verified %d, deleted %d, failed %d", verified, deleted, failed)
}

type deadLinkError struct {
	status int
}

func (e *deadLinkError) Error() string {
	return fmt.Sprintf("dead link: status %d", e.status)
}

func isDeadLink(err error) bool {
	_, ok := err.(*deadLinkError)
	return ok
}

// verify downloads the image and mirrors it to object storage. Without
// an uploader the original URL is kept as the thumbnail.
func (w *ImageWorker) verify(ctx context.Context, img *models.ListingImage) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", img.URL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "image/*,*/*")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return "", &deadLinkError{status: resp.StatusCode}
	default:
		return "", fmt.Errorf("download status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 20*1024*1024))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if w.uploader == nil {
		return img.URL, nil
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	ext := guessExtension(img.URL, contentType)
	key := fmt.Sprintf("listings/%s/%s%s", img.ListingID, img.ID, ext)

	publicURL, err := w.uploader.Upload(ctx, key, bytes.NewReader(data), contentType)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	return publicURL, nil
}

// guessExtension determines file extension from URL or content-type.
func guessExtension(url, contentType string) string {
	ext := strings.ToLower(path.Ext(url))
	if i := strings.IndexAny(ext, "?&"); i >= 0 {
		ext = ext[:i]
	}
	if isImageExt(ext) {
		return ext
	}

	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func isImageExt(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp":
		return true
	}
	return false
}
