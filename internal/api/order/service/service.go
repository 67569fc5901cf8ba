package orderService

import (
	"Replicaide/internal/api/order"
	orderRepository "Replicaide/internal/api/order/repository"
	"Replicaide/internal/entity"
	"Replicaide/pkg/convai"
	"Replicaide/pkg/utils"
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// MenuSource lists the menu items a voice agent can sell.
type MenuSource interface {
	List(c context.Context) ([]entity.Listing, error)
}

type OrderService interface {
	List(c context.Context) ([]entity.Order, error)

	StartSession(c context.Context, actor entity.Actor, language string) (entity.VoiceSession, error)
	Session(c context.Context, id string) (entity.VoiceSession, error)
	AppendMessage(c context.Context, id string, entry entity.TranscriptEntry) (entity.VoiceSession, error)
	Confirm(c context.Context, id string, overrides order.Overrides) (entity.Order, error)
	Cancel(c context.Context, id string) error

	Subscribe(id string) (<-chan entity.OrderUpdate, func())
	RelayAgent(c context.Context, id string, cb AgentCallbacks) (convai.IConversation, error)

	// Drain ends every agent relay and waits for in-flight extractions.
	Drain(c context.Context) error
}

type Config struct {
	// VoiceIDs overrides the agent voice per language.
	VoiceIDs          map[entity.Locale]string
	ExtractionTimeout time.Duration
}

type orderService struct {
	log       *logrus.Logger
	repo      orderRepository.Repository
	sessions  orderRepository.SessionStore
	menu      MenuSource
	extractor Extractor
	agent     convai.IClient
	hub       *Hub
	utils     utils.IUtils
	cfg       Config
	now       func() time.Time

	convMu        sync.Mutex
	conversations map[string]*relay

	// extractions tracks in-flight extraction passes.
	extractions sync.WaitGroup
}

// NewOrderService wires the voice ordering flow. agent may be nil, in which
// case sessions can only be fed through AppendMessage.
func NewOrderService(
	log *logrus.Logger,
	repo orderRepository.Repository,
	sessions orderRepository.SessionStore,
	menu MenuSource,
	extractor Extractor,
	agent convai.IClient,
	hub *Hub,
	utils utils.IUtils,
	cfg Config,
) OrderService {
	if cfg.ExtractionTimeout <= 0 {
		cfg.ExtractionTimeout = 30 * time.Second
	}
	if hub == nil {
		hub = NewHub()
	}

	return &orderService{
		log:           log,
		repo:          repo,
		sessions:      sessions,
		menu:          menu,
		extractor:     extractor,
		agent:         agent,
		hub:           hub,
		utils:         utils,
		cfg:           cfg,
		now:           time.Now,
		conversations: make(map[string]*relay),
	}
}

func (s *orderService) Drain(c context.Context) error {
	s.convMu.Lock()
	ids := make([]string, 0, len(s.conversations))
	for id := range s.conversations {
		ids = append(ids, id)
	}
	s.convMu.Unlock()

	for _, id := range ids {
		s.endConversation(id)
	}

	done := make(chan struct{})
	go func() {
		s.extractions.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-c.Done():
		return c.Err()
	}
}
