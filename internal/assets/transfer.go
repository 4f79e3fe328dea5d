package assets

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Result is the outcome of a cover transfer. Degradation is a first-class
// return value, not an error: URL always carries a usable reference, either
// the stored copy or the original external URL.
type Result struct {
	URL      string
	Degraded bool
	Cause    error
}

// Transferrer downloads cover images and stores them under deterministic
// keys derived from the book id.
type Transferrer struct {
	store  ObjectStore
	client *http.Client
}

// NewTransferrer creates a transferrer over the given object store.
func NewTransferrer(store ObjectStore) *Transferrer {
	return &Transferrer{
		store:  store,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Transfer fetches srcURL and writes it to the object store under
// covers/<bookID>.<ext>. Any failure returns the original URL with the
// degradation recorded; Transfer never fails outright.
func (t *Transferrer) Transfer(ctx context.Context, bookID, srcURL string) Result {
	degraded := func(cause error) Result {
		return Result{URL: srcURL, Degraded: true, Cause: cause}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return degraded(fmt.Errorf("creating request: %w", err))
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return degraded(fmt.Errorf("downloading cover: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return degraded(fmt.Errorf("cover download returned status %d", resp.StatusCode))
	}

	contentType := resp.Header.Get("Content-Type")
	key := fmt.Sprintf("covers/%s.%s", bookID, extensionFor(contentType))

	if err := t.store.Put(ctx, key, resp.Body, resp.ContentLength, contentType); err != nil {
		return degraded(fmt.Errorf("storing cover: %w", err))
	}

	return Result{URL: t.store.PublicURL(key)}
}
