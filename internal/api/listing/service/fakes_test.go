package listingService

import (
	"Replicaide/internal/api/listing"
	listingRepository "Replicaide/internal/api/listing/repository"
	"Replicaide/internal/entity"
	"Replicaide/pkg/generation"
	"context"
	"errors"
	"sort"
	"sync"
)

type fakeListings struct {
	mu      sync.Mutex
	records map[string]entity.Listing
	saveErr error
}

func (f *fakeListings) Save(_ context.Context, l entity.Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.records[l.ID] = l
	return nil
}

func (f *fakeListings) List(context.Context) ([]entity.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.Listing, 0, len(f.records))
	for _, l := range f.records {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeListings) GetByID(_ context.Context, id string) (entity.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.records[id]
	if !ok {
		return entity.Listing{}, listing.ErrListingNotFound
	}
	return l, nil
}

func (f *fakeListings) Update(_ context.Context, id string, lang entity.Language, u listingRepository.ContentUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.records[id]
	if !ok {
		return listing.ErrListingNotFound
	}
	content := l.Content(lang)
	if u.Title != nil {
		content.Title = *u.Title
	}
	if u.Description != nil {
		content.Description = *u.Description
	}
	if u.Price != nil {
		l.Price = *u.Price
	}
	f.records[id] = l
	return nil
}

func (f *fakeListings) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return listing.ErrListingNotFound
	}
	delete(f.records, id)
	return nil
}

type fakeErrorLogs struct {
	mu      sync.Mutex
	entries []entity.ErrorLog
	err     error
}

func (f *fakeErrorLogs) Append(_ context.Context, e entity.ErrorLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

type fakeRepo struct {
	listings *fakeListings
	logs     *fakeErrorLogs
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		listings: &fakeListings{records: map[string]entity.Listing{}},
		logs:     &fakeErrorLogs{},
	}
}

func (f *fakeRepo) NewClient(bool) (listingRepository.Client, error) {
	return listingRepository.Client{
		Listings:  f.listings,
		ErrorLogs: f.logs,
		Commit:    func() error { return nil },
		Rollback:  func() error { return nil },
	}, nil
}

type fakeStore struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (f *fakeStore) Upload(_ context.Context, data []byte, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if len(data) == 0 {
		return "", errors.New("empty payload")
	}
	f.paths = append(f.paths, path)
	return "https://blobs.example/" + path, nil
}

type fakeTranscriber struct {
	text  string
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(context.Context, []byte, string) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeGenerator struct {
	reply string
	err   error
	calls int
	last  generation.CompletionRequest
}

func (f *fakeGenerator) Complete(_ context.Context, req generation.CompletionRequest) (string, error) {
	f.calls++
	f.last = req
	return f.reply, f.err
}

// fakeTTS fails the calls listed in failOn, counted from 1.
type fakeTTS struct {
	calls  int
	voices []string
	failOn map[int]error
}

func (f *fakeTTS) GenerateAudio(_ context.Context, voiceID string, text string) ([]byte, error) {
	f.calls++
	f.voices = append(f.voices, voiceID)
	if err, ok := f.failOn[f.calls]; ok {
		return nil, err
	}
	return []byte("mp3:" + text), nil
}
