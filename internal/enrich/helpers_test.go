package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kavir10/lead-scoring/internal/model"
	"github.com/kavir10/lead-scoring/internal/scrape"
	"github.com/kavir10/lead-scoring/pkg/apify"
)

// fakeFetcher serves canned HTML keyed by URL.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*scrape.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	body, ok := f.pages[url]
	if !ok {
		return nil, errors.New("not found: " + url)
	}
	return &scrape.Page{URL: url, FinalURL: url, StatusCode: 200, HTML: body}, nil
}

func (f *fakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fakeActors is an apify.Client whose runs finish immediately with items
// produced by handler.
type fakeActors struct {
	mu       sync.Mutex
	handler  func(actorID string, input map[string]any) ([]any, error)
	datasets map[string][]json.RawMessage
	inputs   []map[string]any
}

func newFakeActors(handler func(actorID string, input map[string]any) ([]any, error)) *fakeActors {
	return &fakeActors{handler: handler, datasets: map[string][]json.RawMessage{}}
}

func (f *fakeActors) StartRun(_ context.Context, actorID string, input any) (*apify.Run, error) {
	b, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	var in map[string]any
	if err := json.Unmarshal(b, &in); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	f.mu.Unlock()

	items, err := f.handler(actorID, in)
	if err != nil {
		return nil, err
	}
	raws := make([]json.RawMessage, 0, len(items))
	for _, it := range items {
		rb, err := json.Marshal(it)
		if err != nil {
			return nil, err
		}
		raws = append(raws, rb)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	id := fmt.Sprintf("ds-%d", len(f.datasets)+1)
	f.datasets[id] = raws
	return &apify.Run{ID: "run-" + id, Status: apify.StatusSucceeded, DefaultDatasetID: id}, nil
}

func (f *fakeActors) GetRun(_ context.Context, runID string) (*apify.Run, error) {
	return nil, errors.New("unexpected GetRun " + runID)
}

func (f *fakeActors) DatasetItems(_ context.Context, datasetID string) ([]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.datasets[datasetID], nil
}

func (f *fakeActors) Inputs() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.inputs...)
}

// stringsOf converts a decoded JSON array to strings.
func stringsOf(v any) []string {
	arr, _ := v.([]any)
	out := make([]string, 0, len(arr))
	for _, x := range arr {
		s, _ := x.(string)
		out = append(out, s)
	}
	return out
}

func testLead(name, phone string) model.Lead {
	l := model.NewLead()
	l.Name = name
	l.Address = strings.ToLower(name) + " street"
	l.PhoneNormalized = phone
	return l
}
