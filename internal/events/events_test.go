package events

import (
	"context"
	"testing"
	"time"

	"payment-offers-api/internal/models"
)

func TestPublish_DeliversToSubscriber(t *testing.T) {
	m := NewManager(true)
	defer m.Shutdown()

	received := make(chan Event, 1)
	m.Subscribe(EventOffersIngested, func(ctx context.Context, event Event) error {
		received <- event
		return nil
	})

	result := models.IngestResult{NoOfOffersIdentified: 3, NoOfNewOffersCreated: 1}
	m.PublishOffersIngested(context.Background(), result)

	select {
	case event := <-received:
		if event.Type != EventOffersIngested {
			t.Errorf("Expected event type %s, got %s", EventOffersIngested, event.Type)
		}
		data, ok := event.Data.(OffersIngestedData)
		if !ok {
			t.Fatalf("Expected OffersIngestedData, got %T", event.Data)
		}
		if data.Result != result {
			t.Errorf("Expected result %+v, got %+v", result, data.Result)
		}
	case <-time.After(time.Second):
		t.Fatal("Subscriber never received the event")
	}
}

func TestPublish_HandlerOutlivesRequestContext(t *testing.T) {
	m := NewManager(true)
	defer m.Shutdown()

	handlerErr := make(chan error, 1)
	m.Subscribe(EventDiscountResolved, func(ctx context.Context, event Event) error {
		handlerErr <- ctx.Err()
		return nil
	})

	// Simulate a request whose context is already canceled by the time
	// the subscriber runs.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.PublishDiscountResolved(ctx, models.DiscountQuery{Amount: 5000, BankName: "HDFC"}, models.DiscountResult{HighestDiscountAmount: 100})

	select {
	case err := <-handlerErr:
		if err != nil {
			t.Errorf("Expected handler context to survive request cancellation, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Subscriber never received the event")
	}
}

func TestPublish_DisabledManagerDropsEvents(t *testing.T) {
	m := NewManager(false)

	received := make(chan Event, 1)
	m.Subscribe(EventOffersIngested, func(ctx context.Context, event Event) error {
		received <- event
		return nil
	})

	m.PublishOffersIngested(context.Background(), models.IngestResult{NoOfOffersIdentified: 1})

	select {
	case <-received:
		t.Fatal("Disabled manager must not deliver events")
	case <-time.After(50 * time.Millisecond):
	}
}
