package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"fogcatalog/models"
	"fogcatalog/utils"
)

// fakeStorage implements StorageInterface and tracks in-flight concurrency
type fakeStorage struct {
	mu            sync.Mutex
	inFlight      int
	maxInFlight   int
	calls         int
	failRemaining int // first N calls fail with a transient error
	delay         time.Duration
}

func (f *fakeStorage) Upload(ctx context.Context, in UploadInput) (string, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.calls++
	fail := f.failRemaining > 0
	if fail {
		f.failRemaining--
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if fail {
		return "", errors.New("storage unavailable")
	}
	return "https://cdn.test/" + in.Path + "/" + in.FileName, nil
}

// fakeProductRepo implements repository.ProductRepositoryInterface
type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]*models.Product
	batches  [][]models.ProductImages
}

func newFakeProductRepo(products ...*models.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: make(map[string]*models.Product)}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeProductRepo) GetAll(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakeProductRepo) GetByID(ctx context.Context, id string) (*models.Product, error) {
	if p, ok := r.products[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeProductRepo) GetActiveForCatalog(ctx context.Context, category string) ([]models.Product, error) {
	return r.GetAll(ctx)
}

func (r *fakeProductRepo) Create(ctx context.Context, p *models.Product) error { return nil }
func (r *fakeProductRepo) Update(ctx context.Context, p *models.Product) error { return nil }
func (r *fakeProductRepo) Delete(ctx context.Context, id string) error         { return nil }

func (r *fakeProductRepo) BulkAppendProductImages(ctx context.Context, updates []models.ProductImages) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, updates)
	return nil
}

func makeImages(n int, productID string) []*models.ImageFile {
	images := make([]*models.ImageFile, n)
	for i := range images {
		images[i] = &models.ImageFile{
			ID:               fmt.Sprintf("img%d", i+1),
			FileName:         fmt.Sprintf("photo-%d.png", i+1),
			ContentType:      "image/png",
			Data:             []byte("not-a-real-image"),
			Status:           models.UploadPending,
			MatchedProductID: productID,
		}
	}
	return images
}

func fastRetry() utils.RetryOptions {
	return utils.RetryOptions{Attempts: 3, BaseDelay: time.Millisecond, Timeout: time.Second}
}

func TestUploadMatchedBoundsConcurrency(t *testing.T) {
	storage := &fakeStorage{delay: 10 * time.Millisecond}
	repo := newFakeProductRepo(&models.Product{ID: "p1"})
	svc := NewUploadService(storage, repo, nil)

	images := makeImages(7, "p1")
	var progress [][2]int
	syncedBeforeBatch := false

	result, err := svc.UploadMatched(context.Background(), "s1", images, UploadOptions{
		Concurrency: 3,
		Retry:       fastRetry(),
		OnProgress:  func(done, total int) { progress = append(progress, [2]int{done, total}) },
		OnSyncing: func() {
			repo.mu.Lock()
			syncedBeforeBatch = len(repo.batches) == 0
			repo.mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.SuccessCount != 7 || result.Total != 7 {
		t.Errorf("result = %+v, want 7/7", result)
	}
	if storage.maxInFlight > 3 {
		t.Errorf("max in-flight uploads = %d, want <= 3", storage.maxInFlight)
	}
	want := [][2]int{{3, 7}, {6, 7}, {7, 7}}
	if len(progress) != len(want) {
		t.Fatalf("progress = %v, want %v", progress, want)
	}
	for i := range want {
		if progress[i] != want[i] {
			t.Errorf("progress[%d] = %v, want %v", i, progress[i], want[i])
		}
	}
	if !syncedBeforeBatch {
		t.Error("OnSyncing did not fire before the batch database sync")
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.batches) != 1 {
		t.Fatalf("batch sync called %d times, want 1", len(repo.batches))
	}
	if len(repo.batches[0]) != 1 || repo.batches[0][0].ProductID != "p1" || len(repo.batches[0][0].Images) != 7 {
		t.Errorf("batch = %+v, want 7 urls for p1", repo.batches[0])
	}
}

func TestUploadMatchedRetriesTransientErrors(t *testing.T) {
	storage := &fakeStorage{failRemaining: 2}
	repo := newFakeProductRepo(&models.Product{ID: "p1"})
	svc := NewUploadService(storage, repo, nil)

	images := makeImages(1, "p1")
	result, err := svc.UploadMatched(context.Background(), "", images, UploadOptions{Retry: fastRetry()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SuccessCount != 1 {
		t.Errorf("success = %d, want 1 after retries", result.SuccessCount)
	}
	if storage.calls != 3 {
		t.Errorf("storage calls = %d, want 3", storage.calls)
	}
	if images[0].Status != models.UploadSuccess {
		t.Errorf("status = %s, want success", images[0].Status)
	}
}

func TestUploadMatchedSurfacesTerminalErrors(t *testing.T) {
	// Every attempt fails; the item ends in a terminal error and the batch
	// sync is skipped because nothing succeeded.
	storage := &fakeStorage{failRemaining: 1 << 20}
	repo := newFakeProductRepo(&models.Product{ID: "p1"})
	svc := NewUploadService(storage, repo, nil)

	images := makeImages(2, "p1")
	result, err := svc.UploadMatched(context.Background(), "", images, UploadOptions{Retry: fastRetry()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.SuccessCount != 0 || result.Total != 2 {
		t.Errorf("result = %+v, want 0/2", result)
	}
	errorCount := 0
	for _, img := range images {
		if img.Status == models.UploadError {
			errorCount++
			if !strings.Contains(img.Error, "storage unavailable") {
				t.Errorf("item error = %q, want last attempt's message", img.Error)
			}
		}
	}
	if result.SuccessCount+errorCount != result.Total {
		t.Errorf("success(%d) + error(%d) != total(%d)", result.SuccessCount, errorCount, result.Total)
	}
	if len(repo.batches) != 0 {
		t.Errorf("batch sync was called with no successes: %+v", repo.batches)
	}
}

func TestUploadMatchedCancellationMidBatch(t *testing.T) {
	storage := &fakeStorage{delay: 5 * time.Millisecond}
	repo := newFakeProductRepo(&models.Product{ID: "p1"})
	svc := NewUploadService(storage, repo, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	images := makeImages(7, "p1")
	result, err := svc.UploadMatched(ctx, "", images, UploadOptions{
		Concurrency: 3,
		Retry:       fastRetry(),
		OnProgress: func(done, total int) {
			if done == 3 {
				cancel()
			}
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.SuccessCount != 3 {
		t.Errorf("success = %d, want 3 (first chunk only)", result.SuccessCount)
	}
	for i, img := range images {
		if img.Status == models.UploadUploading {
			t.Errorf("image %d stuck in uploading after cancellation", i)
		}
	}
	pending := 0
	for _, img := range images {
		if img.Status == models.UploadPending {
			pending++
		}
	}
	if pending != 4 {
		t.Errorf("pending = %d, want 4 not-started items", pending)
	}

	// The already-succeeded subset still commits.
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.batches) != 1 || len(repo.batches[0][0].Images) != 3 {
		t.Errorf("batch = %+v, want the 3 succeeded urls", repo.batches)
	}
}

func TestUploadMatchedSkipsIneligibleItems(t *testing.T) {
	storage := &fakeStorage{}
	repo := newFakeProductRepo(&models.Product{ID: "p1"})
	svc := NewUploadService(storage, repo, nil)

	images := makeImages(3, "p1")
	images[0].MatchedProductID = "" // unmatched
	images[1].Status = models.UploadSuccess

	result, err := svc.UploadMatched(context.Background(), "", images, UploadOptions{Retry: fastRetry()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 1 || result.SuccessCount != 1 {
		t.Errorf("result = %+v, want 1/1", result)
	}
	if images[0].Status != models.UploadPending {
		t.Errorf("unmatched item transitioned to %s", images[0].Status)
	}
}

func TestUploadMatchedEnforcesImageLimit(t *testing.T) {
	storage := &fakeStorage{}
	full := &models.Product{ID: "p1", Images: []string{"a", "b", "c", "d", "e"}}
	repo := newFakeProductRepo(full, &models.Product{ID: "p2"})
	svc := NewUploadService(storage, repo, nil)

	images := append(makeImages(2, "p1"), makeImages(1, "p2")...)
	result, err := svc.UploadMatched(context.Background(), "", images, UploadOptions{Retry: fastRetry()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.SuccessCount != 1 {
		t.Errorf("success = %d, want only the p2 item", result.SuccessCount)
	}
	for _, img := range images[:2] {
		if img.Status != models.UploadError {
			t.Errorf("over-limit item status = %s, want error", img.Status)
		}
	}
	if storage.calls != 1 {
		t.Errorf("storage calls = %d, want 1 (over-limit items never upload)", storage.calls)
	}
}
