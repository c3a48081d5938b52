package events

import (
	"testing"
	"time"

	"budgetplanner/backend/models"
)

func TestPublishFanOut(t *testing.T) {
	b := NewBroker()
	a, cancelA := b.Subscribe(4)
	c, cancelC := b.Subscribe(4)
	defer cancelA()
	defer cancelC()

	b.Publish(models.Event{Entity: models.EntityTransaction, Action: models.ActionCreated, ID: 7})

	for i, ch := range []<-chan models.Event{a, c} {
		select {
		case e := <-ch:
			if e.ID != 7 || e.Entity != models.EntityTransaction {
				t.Errorf("subscriber %d got unexpected event %+v", i, e)
			}
			if e.At.IsZero() {
				t.Errorf("subscriber %d expected event time to be stamped", i)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d did not receive the event", i)
		}
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe(1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Publish(models.Event{Entity: models.EntitySavings, ID: int64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}

	if e := <-ch; e.ID != 0 {
		t.Errorf("Expected the first event to be kept, got %d", e.ID)
	}
}

func TestCancelAndClose(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe(1)
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("Expected channel to be closed after cancel")
	}
	if b.Subscribers() != 0 {
		t.Errorf("Expected no subscribers, got %d", b.Subscribers())
	}

	other, _ := b.Subscribe(1)
	b.Close()
	if _, ok := <-other; ok {
		t.Error("Expected channel to be closed by Close")
	}

	late, _ := b.Subscribe(1)
	if _, ok := <-late; ok {
		t.Error("Expected subscription after Close to be closed")
	}

	b.Publish(models.Event{})
}
