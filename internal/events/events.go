package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
)

// Event types emitted by the ledger.
const (
	RecipeMissing         = "cost.recipe_missing"
	RecipeCostFallback    = "cost.recipe_fallback"
	RawItemMissing        = "cost.raw_item_missing"
	ModifierUnknown       = "cost.modifier_unknown"
	WasteUnresolved       = "accounting.waste_unresolved"
	SnapshotSaved         = "accounting.snapshot_saved"
	RecipeVersionCreated  = "recipe.version_created"
	RecipeVersionActivate = "recipe.version_activated"
	InvoiceIssued         = "invoice.issued"
)

const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
)

type Event struct {
	Type       string         `json:"type"`
	Severity   string         `json:"severity"`
	Message    string         `json:"message"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func Warning(typ, message string, data map[string]any) Event {
	return Event{Type: typ, Severity: SeverityWarning, Message: message, Data: data, OccurredAt: time.Now().UTC()}
}

func Info(typ, message string, data map[string]any) Event {
	return Event{Type: typ, Severity: SeverityInfo, Message: message, Data: data, OccurredAt: time.Now().UTC()}
}

// Publisher delivers events on a best-effort basis; it must never fail the caller.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// LogPublisher writes each event as a structured log line.
type LogPublisher struct {
	log logrus.FieldLogger
}

func NewLogPublisher(log logrus.FieldLogger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, e Event) {
	entry := p.log.WithFields(logrus.Fields{"event": e.Type, "data": e.Data})
	if e.Severity == SeverityWarning {
		entry.Warn(e.Message)
		return
	}
	entry.Info(e.Message)
}

// Broadcaster is the subset of the websocket hub used for fan-out.
type Broadcaster interface {
	Broadcast(message []byte) bool
}

type HubPublisher struct {
	hub Broadcaster
	log logrus.FieldLogger
}

func NewHubPublisher(hub Broadcaster, log logrus.FieldLogger) *HubPublisher {
	return &HubPublisher{hub: hub, log: log}
}

func (p *HubPublisher) Publish(_ context.Context, e Event) {
	msg, err := json.Marshal(e)
	if err != nil {
		p.log.WithError(err).WithField("event", e.Type).Error("failed to encode event")
		return
	}
	p.hub.Broadcast(msg)
}

type multi []Publisher

// Multi fans an event out to every non-nil publisher.
func Multi(publishers ...Publisher) Publisher {
	var m multi
	for _, p := range publishers {
		if p != nil {
			m = append(m, p)
		}
	}
	return m
}

func (m multi) Publish(ctx context.Context, e Event) {
	for _, p := range m {
		p.Publish(ctx, e)
	}
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
