package service

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ipgongchang/fanout/internal/models"
)

const distributePath = "/api/v1/distribute"

// RequestMeta carries the request attributes recorded with every event.
type RequestMeta struct {
	Path      string
	IPAddress string
	UserAgent string
	Referrer  string
}

// EventService writes best-effort analytics events. Emission never blocks
// the dispatch path: events go through a buffered channel drained by a
// single worker, a full buffer drops the event, and insert failures are only
// logged.
type EventService struct {
	db     *gorm.DB
	logger *zap.Logger
	ch     chan models.AnalyticsEvent
	done   chan struct{}
}

func NewEventService(db *gorm.DB, logger *zap.Logger) *EventService {
	e := &EventService{
		db:     db,
		logger: logger,
		ch:     make(chan models.AnalyticsEvent, 256),
		done:   make(chan struct{}),
	}
	go e.run()
	return e
}

func (e *EventService) run() {
	defer close(e.done)
	for event := range e.ch {
		if err := e.db.Create(&event).Error; err != nil {
			e.logger.Warn("failed to record analytics event",
				zap.String("event", event.Event),
				zap.Error(err))
		}
	}
}

func (e *EventService) Emit(event string, meta RequestMeta, props models.JSONMap) {
	row := models.AnalyticsEvent{
		Event:     event,
		Path:      meta.Path,
		IPAddress: meta.IPAddress,
		Props:     props,
	}
	if row.Path == "" {
		row.Path = distributePath
	}
	if row.IPAddress == "" {
		row.IPAddress = "unknown"
	}
	if meta.UserAgent != "" {
		ua := meta.UserAgent
		row.UserAgent = &ua
	}
	if meta.Referrer != "" {
		ref := meta.Referrer
		row.Referrer = &ref
	}

	select {
	case e.ch <- row:
	default:
		e.logger.Warn("analytics event buffer full, dropping event",
			zap.String("event", event))
	}
}

// Close drains pending events and stops the worker.
func (e *EventService) Close() {
	close(e.ch)
	<-e.done
}
