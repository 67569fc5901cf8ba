package orderService

import (
	"Replicaide/internal/api/order"
	"Replicaide/internal/entity"
	contextPkg "Replicaide/pkg/context"
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
)

// minExtractionMessages is the transcript length at which extraction
// starts. After that it runs on every even length.
const minExtractionMessages = 4

func (s *orderService) List(c context.Context) ([]entity.Order, error) {
	client, err := s.repo.NewClient(false)
	if err != nil {
		return nil, err
	}
	return client.Orders.List(c)
}

func (s *orderService) StartSession(c context.Context, actor entity.Actor, language string) (entity.VoiceSession, error) {
	requestID := contextPkg.GetRequestID(c)

	locale := actor.Locale
	if strings.TrimSpace(language) != "" {
		parsed, err := entity.ParseLocale(language)
		if err != nil {
			return entity.VoiceSession{}, order.ErrInvalidLanguage
		}
		locale = parsed
	}
	if locale == "" {
		locale = entity.DefaultLocale
	}

	listings, err := s.menu.List(c)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to load menu for voice session")
		return entity.VoiceSession{}, err
	}

	now := s.now()
	id, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		return entity.VoiceSession{}, err
	}

	menu := buildMenu(listings, locale)
	session := entity.VoiceSession{
		ID:         id,
		UserID:     actor.UserID,
		Language:   string(locale),
		Agent:      s.agentConfig(locale, menu),
		Menu:       menu,
		Transcript: []entity.TranscriptEntry{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.sessions.Create(c, session); err != nil {
		return entity.VoiceSession{}, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": id,
		"user_id":    actor.UserID,
		"language":   locale,
	}).Info("Voice session started")

	return session, nil
}

func (s *orderService) Session(c context.Context, id string) (entity.VoiceSession, error) {
	return s.sessions.Get(c, id)
}

// AppendMessage records one conversation turn. Once the transcript is long
// enough, every even length schedules an extraction against that exact
// transcript version.
func (s *orderService) AppendMessage(c context.Context, id string, entry entity.TranscriptEntry) (entity.VoiceSession, error) {
	if entry.Source != entity.SourceUser && entry.Source != entity.SourceAgent {
		return entity.VoiceSession{}, order.ErrInvalidSource
	}
	entry.Text = strings.TrimSpace(entry.Text)
	if entry.Text == "" {
		return entity.VoiceSession{}, order.ErrEmptyMessage
	}

	session, _, err := s.sessions.Update(c, id, func(vs *entity.VoiceSession) (bool, error) {
		vs.Transcript = append(vs.Transcript, entry)
		vs.Version = int64(len(vs.Transcript))
		vs.UpdatedAt = s.now()
		return true, nil
	})
	if err != nil {
		return entity.VoiceSession{}, err
	}

	if n := len(session.Transcript); n >= minExtractionMessages && n%2 == 0 {
		s.extractions.Add(1)
		go s.runExtraction(contextPkg.Detach(c), session)
	}

	return session, nil
}

func (s *orderService) runExtraction(c context.Context, snapshot entity.VoiceSession) {
	defer s.extractions.Done()

	ctx, cancel := context.WithTimeout(c, s.cfg.ExtractionTimeout)
	defer cancel()

	extracted, ok := s.extractor.Extract(ctx, snapshot.Menu, snapshot.Transcript)
	if !ok {
		return
	}

	if _, err := s.applyExtraction(ctx, snapshot.ID, snapshot.Version, extracted); err != nil && !errors.Is(err, order.ErrSessionNotFound) {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"session_id": snapshot.ID,
			"version":    snapshot.Version,
			"error":      err.Error(),
		}).Warn("Failed to store extracted order")
	}
}

// applyExtraction stores an order extracted from transcript version v. It
// is discarded unless v is newer than the version the stored order came
// from and not newer than the transcript itself.
func (s *orderService) applyExtraction(c context.Context, id string, v int64, extracted entity.Order) (bool, error) {
	var applied entity.Order

	_, changed, err := s.sessions.Update(c, id, func(vs *entity.VoiceSession) (bool, error) {
		if v <= vs.AppliedVersion || v > vs.Version {
			return false, nil
		}

		applied = extracted
		applied.UserID = vs.UserID
		applied.Language = vs.Language
		applied.Total = entity.ComputeTotal(applied.Items)

		vs.Order = &applied
		vs.AppliedVersion = v
		return true, nil
	})
	if err != nil {
		return false, err
	}

	if !changed {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(c),
			"session_id": id,
			"version":    v,
		}).Debug("Stale extraction discarded")
		return false, nil
	}

	s.hub.Publish(entity.OrderUpdate{SessionID: id, Version: v, Order: applied})
	return true, nil
}

func (s *orderService) Confirm(c context.Context, id string, overrides order.Overrides) (entity.Order, error) {
	requestID := contextPkg.GetRequestID(c)

	session, err := s.sessions.Get(c, id)
	if err != nil {
		return entity.Order{}, err
	}

	var o entity.Order
	if session.Order != nil {
		o = *session.Order
	}
	if overrides.CustomerName != nil {
		o.CustomerName = strings.TrimSpace(*overrides.CustomerName)
	}
	if overrides.Items != nil {
		o.Items = overrides.Items
	}
	if o.Items == nil {
		o.Items = []entity.OrderItem{}
	}
	for i := range o.Items {
		o.Items[i].Name = strings.TrimSpace(o.Items[i].Name)
		if o.Items[i].Name == "" || o.Items[i].Quantity < 0 || o.Items[i].Price < 0 {
			return entity.Order{}, order.ErrInvalidItems
		}
	}

	now := s.now()
	orderID, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		return entity.Order{}, err
	}
	o.ID = orderID
	o.UserID = session.UserID
	o.Language = session.Language
	o.Total = entity.ComputeTotal(o.Items)
	o.CreatedAt = now

	client, err := s.repo.NewClient(false)
	if err != nil {
		return entity.Order{}, err
	}
	if err := client.Orders.Save(c, o); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": id,
			"error":      err.Error(),
		}).Error("Failed to save confirmed order")
		return entity.Order{}, order.ErrPersistence
	}

	s.endSession(c, id)

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": id,
		"order_id":   o.ID,
		"total":      o.FormattedTotal(),
	}).Info("Order confirmed")

	return o, nil
}

func (s *orderService) Cancel(c context.Context, id string) error {
	if err := s.sessions.Delete(c, id); err != nil {
		return err
	}
	s.endSession(c, id)
	return nil
}

// endSession drops the stored session and tears down everything attached
// to it. The stored order has already been saved or abandoned.
func (s *orderService) endSession(c context.Context, id string) {
	if err := s.sessions.Delete(c, id); err != nil && !errors.Is(err, order.ErrSessionNotFound) {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(c),
			"session_id": id,
			"error":      err.Error(),
		}).Warn("Failed to delete voice session")
	}
	s.endConversation(id)
	s.hub.Close(id)
}

func (s *orderService) Subscribe(id string) (<-chan entity.OrderUpdate, func()) {
	return s.hub.Subscribe(id)
}
