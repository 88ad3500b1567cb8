package ldmap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pquerna/cachecontrol"
)

// CachingLoader fetches remote documents over HTTP and caches responses
// according to their Cache-Control headers. It serves both remote JSON-LD
// contexts and remote ontology sources.
type CachingLoader struct {
	client *http.Client

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	body    []byte
	expires time.Time
}

// NewCachingLoader creates a caching loader. A nil client uses
// http.DefaultClient.
func NewCachingLoader(client *http.Client) *CachingLoader {
	if client == nil {
		client = http.DefaultClient
	}
	return &CachingLoader{
		client:  client,
		entries: make(map[string]cacheEntry),
	}
}

// Fetch retrieves the raw bytes of a remote document, serving unexpired
// cached responses without a network round trip.
func (l *CachingLoader) Fetch(ctx context.Context, iri string) ([]byte, error) {
	l.mu.Lock()
	entry, ok := l.entries[iri]
	l.mu.Unlock()
	if ok && time.Now().Before(entry.expires) {
		return entry.body, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, iri, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/ld+json, application/json, application/rdf+xml, */*")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ldmap: fetching %s: unexpected status %s", iri, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	reasons, expires, err := cachecontrol.CachableResponse(req, resp, cachecontrol.Options{})
	if err == nil && len(reasons) == 0 && expires.After(time.Now()) {
		l.mu.Lock()
		l.entries[iri] = cacheEntry{body: body, expires: expires}
		l.mu.Unlock()
	}
	return body, nil
}

// LoadDocument implements DocumentLoader for remote JSON-LD contexts.
func (l *CachingLoader) LoadDocument(ctx context.Context, iri string) (RemoteDocument, error) {
	body, err := l.Fetch(ctx, iri)
	if err != nil {
		return RemoteDocument{}, err
	}
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return RemoteDocument{}, fmt.Errorf("ldmap: decoding %s: %w", iri, err)
	}
	return RemoteDocument{DocumentURL: iri, Document: doc}, nil
}
