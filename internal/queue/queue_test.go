package queue

import (
	"context"
	"testing"
	"time"
)

func TestInMemory_PublishConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	msgs, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	evt := Event{ID: "e1", StudentID: "101", Status: "On Time", OccurredAt: time.Unix(0, 0).UTC()}
	msg, err := Encode(TypeMarked, evt)
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Publish(ctx, msg); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case got := <-msgs:
		if got.Type != TypeMarked {
			t.Errorf("expected type %s, got %s", TypeMarked, got.Type)
		}
		decoded, err := Decode(got)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if decoded.StudentID != "101" || decoded.ID != "e1" {
			t.Errorf("unexpected event %+v", decoded)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestInMemory_PublishRespectsContext(t *testing.T) {
	q := NewInMemory(1)
	if err := q.Publish(context.Background(), Message{Type: "x"}); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := q.Publish(ctx, Message{Type: "y"}); err == nil {
		t.Fatal("expected full queue to honour the deadline")
	}
}

func TestInMemory_ConsumeClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	msgs, _ := NewInMemory(1).Consume(ctx)
	cancel()
	select {
	case _, ok := <-msgs:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	msg := Message{Type: TypeReset, Body: []byte(`{"id":"a|b"}`)}
	got := deserialize(serialize(msg))
	if got.Type != msg.Type || string(got.Body) != string(msg.Body) {
		t.Errorf("expected %+v, got %+v", msg, got)
	}

	bare := deserialize("no-separator")
	if bare.Type != "" || string(bare.Body) != "no-separator" {
		t.Errorf("unexpected bare message %+v", bare)
	}
}

func TestDecode_BadBody(t *testing.T) {
	if _, err := Decode(Message{Type: TypeMarked, Body: []byte("{")}); err == nil {
		t.Fatal("expected decode error")
	}
}
