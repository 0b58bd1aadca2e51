package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/ActionForge/internal/domain/agent"
	"github.com/Strob0t/ActionForge/internal/domain/commerce"
	"github.com/Strob0t/ActionForge/internal/domain/event"
	"github.com/Strob0t/ActionForge/internal/domain/orchestration"
	"github.com/Strob0t/ActionForge/internal/port/messagequeue"
	"github.com/Strob0t/ActionForge/internal/service"
)

var testNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

// ticketContext is a repair outcome on a gamer's device with an objective
// favouring the connectivity offer.
func ticketContext() *orchestration.Context {
	return &orchestration.Context{
		Event: &event.DomainEvent{
			ID:         "evt-ticket-1",
			Type:       event.TypeTicketOutcome,
			OccurredAt: testNow,
			CustomerID: "cust-1",
			Payload: map[string]any{
				event.KeyOutcome:         "not-worth-repairing",
				event.KeyInferredSignals: []any{"gamer"},
			},
		},
		Customer: &commerce.Customer{
			ID:                        "cust-1",
			FullName:                  "Mario Rossi",
			Consents:                  map[commerce.Channel]bool{commerce.ChannelWhatsApp: true},
			CommercialSaturationScore: 20,
		},
		ActiveOffers: []commerce.Offer{
			{ID: "off-nb", Title: "Notebook Lenovo IdeaPad", Category: commerce.CategoryHardware, MarginPct: 18, StockQty: 6},
			{ID: "off-fibra", Title: "Fibra Gamer 2.5G", Category: commerce.CategoryConnectivity, MarginPct: 35, StockQty: 100},
		},
		ActiveObjectives: []commerce.Objective{
			{ID: "obj-1", Name: "Spingi fibra", PreferredOfferIDs: []string{"off-fibra"}},
		},
		Now: testNow,
	}
}

func invoiceContext() *orchestration.Context {
	return &orchestration.Context{
		Event: &event.DomainEvent{
			ID:   "evt-inv-1",
			Type: event.TypeInvoiceIngested,
			Payload: map[string]any{
				event.KeyLines: []any{map[string]any{event.KeyDescription: "RTX 3090 1500€"}},
			},
		},
		ActiveOffers: []commerce.Offer{
			{ID: "off-pc", Title: "PC Gaming", Category: commerce.CategoryHardware, MarginPct: 25, StockQty: 3},
		},
		Now: testNow,
	}
}

type published struct {
	subject string
	data    []byte
}

// fakeQueue records publishes.
type fakeQueue struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (q *fakeQueue) Publish(_ context.Context, subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.msgs = append(q.msgs, published{subject: subject, data: data})
	return nil
}

func (q *fakeQueue) Subscribe(context.Context, string, messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (q *fakeQueue) Drain() error      { return nil }
func (q *fakeQueue) Close() error      { return nil }
func (q *fakeQueue) IsConnected() bool { return true }

func (q *fakeQueue) bySubject(subject string) [][]byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out [][]byte
	for _, m := range q.msgs {
		if m.subject == subject {
			out = append(out, m.data)
		}
	}
	return out
}

// fakeHub records broadcast event types.
type fakeHub struct {
	mu     sync.Mutex
	events []string
}

func (h *fakeHub) BroadcastEvent(_ context.Context, eventType string, _ any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, eventType)
}

// mapCache is an in-memory cache.Cache.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string][]byte)} }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// stubSpecialist returns a fixed result, error or panic.
type stubSpecialist struct {
	id    agent.ID
	res   service.StepResult
	err   error
	panic bool
}

func (s *stubSpecialist) ID() agent.ID { return s.id }

func (s *stubSpecialist) Run(context.Context, *orchestration.Context, orchestration.IDFunc) (service.StepResult, error) {
	if s.panic {
		panic("specialist exploded")
	}
	return s.res, s.err
}

var errAgentDown = errors.New("agent down")

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}
