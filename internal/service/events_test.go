package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/Strob0t/ActionForge/internal/domain"
	"github.com/Strob0t/ActionForge/internal/domain/orchestration"
	"github.com/Strob0t/ActionForge/internal/domain/swarm"
	"github.com/Strob0t/ActionForge/internal/port/messagequeue"
	"github.com/Strob0t/ActionForge/internal/service"
)

type fakeExecutor struct {
	got *orchestration.Context
	err error
}

func (e *fakeExecutor) Execute(_ context.Context, octx *orchestration.Context) (*service.SwarmResult, error) {
	e.got = octx
	if e.err != nil {
		return nil, e.err
	}
	return &service.SwarmResult{RunID: "run-1", Status: swarm.RunCompleted}, nil
}

func TestEventConsumerHandle(t *testing.T) {
	valid, err := json.Marshal(ticketContext())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		data      []byte
		execErr   error
		wantErr   bool
		permanent bool
	}{
		{name: "success", data: valid},
		{name: "bad json", data: []byte(`{"event":`), wantErr: true, permanent: true},
		{name: "validation", data: valid, execErr: fmt.Errorf("%w: event is required", domain.ErrValidation), wantErr: true, permanent: true},
		{name: "recursion", data: valid, execErr: fmt.Errorf("depth 4: %w", domain.ErrRecursionLimit), wantErr: true, permanent: true},
		{name: "store down", data: valid, execErr: errors.New("connection refused"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &fakeExecutor{err: tt.execErr}
			c := service.NewEventConsumer(exec, &fakeQueue{})

			err := c.Handle(context.Background(), messagequeue.SubjectEventsDomain, tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got := errors.Is(err, messagequeue.ErrPermanent); got != tt.permanent {
				t.Errorf("permanent = %v, want %v (err %v)", got, tt.permanent, err)
			}
			if tt.execErr != nil && !errors.Is(err, tt.execErr) {
				t.Errorf("cause lost: %v", err)
			}
		})
	}
}

func TestEventConsumerDecodesContext(t *testing.T) {
	data, err := json.Marshal(ticketContext())
	if err != nil {
		t.Fatal(err)
	}
	exec := &fakeExecutor{}
	if err := service.NewEventConsumer(exec, &fakeQueue{}).Handle(context.Background(), messagequeue.SubjectEventsDomain, data); err != nil {
		t.Fatal(err)
	}
	if exec.got == nil || exec.got.Event.ID != "evt-ticket-1" || exec.got.Customer.ID != "cust-1" {
		t.Fatalf("decoded context = %+v", exec.got)
	}
	if len(exec.got.ActiveOffers) != 2 {
		t.Errorf("offers = %d, want 2", len(exec.got.ActiveOffers))
	}
}

func TestEventConsumerStartSubscribes(t *testing.T) {
	stop, err := service.NewEventConsumer(&fakeExecutor{}, &fakeQueue{}).Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	stop()
}
