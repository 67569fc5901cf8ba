package orderService

import (
	orderRepository "Replicaide/internal/api/order/repository"
	"Replicaide/internal/entity"
	"Replicaide/pkg/convai"
	"Replicaide/pkg/generation"
	"Replicaide/pkg/utils"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeOrders struct {
	mu      sync.Mutex
	saved   []entity.Order
	saveErr error
}

func (f *fakeOrders) Save(_ context.Context, o entity.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, o)
	return nil
}

func (f *fakeOrders) List(context.Context) ([]entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.Order(nil), f.saved...), nil
}

type fakeRepo struct {
	orders *fakeOrders
}

func (f *fakeRepo) NewClient(bool) (orderRepository.Client, error) {
	return orderRepository.Client{
		Orders:   f.orders,
		Commit:   func() error { return nil },
		Rollback: func() error { return nil },
	}, nil
}

type fakeMenu struct {
	listings []entity.Listing
	err      error
}

func (f *fakeMenu) List(context.Context) ([]entity.Listing, error) {
	return f.listings, f.err
}

// scriptedExtractor answers by transcript length. A gate blocks the answer
// for that length until it is closed.
type scriptedExtractor struct {
	mu      sync.Mutex
	gates   map[int]chan struct{}
	results map[int]entity.Order
	calls   []int
}

func newScriptedExtractor() *scriptedExtractor {
	return &scriptedExtractor{
		gates:   make(map[int]chan struct{}),
		results: make(map[int]entity.Order),
	}
}

func (e *scriptedExtractor) Extract(ctx context.Context, _ string, transcript []entity.TranscriptEntry) (entity.Order, bool) {
	n := len(transcript)

	e.mu.Lock()
	e.calls = append(e.calls, n)
	gate := e.gates[n]
	res, ok := e.results[n]
	e.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return entity.Order{}, false
		}
	}
	return res, ok
}

func (e *scriptedExtractor) Calls() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.calls...)
}

type fakeGenerator struct {
	reply string
	err   error
	last  generation.CompletionRequest
}

func (f *fakeGenerator) Complete(_ context.Context, req generation.CompletionRequest) (string, error) {
	f.last = req
	return f.reply, f.err
}

type fakeConversation struct {
	mu    sync.Mutex
	ended int
	audio [][]byte
}

func (f *fakeConversation) SendAudio(chunk []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audio = append(f.audio, chunk)
	return nil
}

func (f *fakeConversation) EndSession() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ended++
	return nil
}

func (f *fakeConversation) ConversationID() string { return "conv-1" }

func (f *fakeConversation) Ended() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ended
}

type fakeAgent struct {
	mu    sync.Mutex
	cfg   convai.SessionConfig
	cb    convai.Callbacks
	conv  *fakeConversation
	err   error
	calls int
}

func (f *fakeAgent) StartSession(_ context.Context, cfg convai.SessionConfig, cb convai.Callbacks) (convai.IConversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	f.cfg, f.cb = cfg, cb
	f.conv = &fakeConversation{}
	return f.conv, nil
}

var errUpstream = errors.New("upstream down")

type testEnv struct {
	svc       *orderService
	orders    *fakeOrders
	menu      *fakeMenu
	extractor *scriptedExtractor
	agent     *fakeAgent
	sessions  orderRepository.SessionStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		orders: &fakeOrders{},
		menu: &fakeMenu{listings: []entity.Listing{
			{
				English: entity.LanguageContent{Title: "Taco"},
				Spanish: entity.LanguageContent{Title: "Taco al pastor"},
				Price:   entity.Price{Raw: "USD 3.50", Amount: 3.5, Currency: "USD"},
			},
			{
				English: entity.LanguageContent{Title: "Horchata"},
				Spanish: entity.LanguageContent{Title: "Horchata"},
				Price:   entity.Price{Raw: "USD 2", Amount: 2, Currency: "USD"},
			},
		}},
		extractor: newScriptedExtractor(),
		agent:     &fakeAgent{},
		sessions:  orderRepository.NewMemorySessionStore(time.Minute),
	}

	env.svc = NewOrderService(
		quietLogger(),
		&fakeRepo{orders: env.orders},
		env.sessions,
		env.menu,
		env.extractor,
		env.agent,
		NewHub(),
		utils.New(),
		Config{ExtractionTimeout: 5 * time.Second},
	).(*orderService)

	t.Cleanup(env.svc.extractions.Wait)
	return env
}

var testActor = entity.Actor{UserID: "u1", Username: "chef", Locale: entity.LocaleEnglish}
