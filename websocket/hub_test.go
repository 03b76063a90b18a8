package websocket

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/anjiri1684/classroom/models"
	"github.com/anjiri1684/classroom/services"
)

func TestHubSendReachesEveryConnection(t *testing.T) {
	h := NewHub()
	a := h.Register(1)
	b := h.Register(1)
	other := h.Register(2)

	if n := h.Send(1, Event{Type: "ping"}); n != 2 {
		t.Fatalf("delivered = %d, want 2", n)
	}
	for _, c := range []*Client{a, b} {
		select {
		case <-c.send:
		default:
			t.Fatal("connection of user 1 got nothing")
		}
	}
	select {
	case <-other.send:
		t.Fatal("user 2 received user 1's event")
	default:
	}

	h.Unregister(a)
	h.Unregister(a)
	if n := h.Connections(1); n != 1 {
		t.Fatalf("connections = %d, want 1", n)
	}
	h.Unregister(b)
	if n := h.Send(1, Event{Type: "ping"}); n != 0 {
		t.Fatalf("delivered to closed user = %d", n)
	}
}

func TestHubSendNeverBlocks(t *testing.T) {
	h := NewHub()
	h.Register(1)
	for i := 0; i < sendBuffer; i++ {
		if n := h.Send(1, Event{Type: "fill"}); n != 1 {
			t.Fatalf("send %d delivered %d", i, n)
		}
	}
	if n := h.Send(1, Event{Type: "overflow"}); n != 0 {
		t.Fatalf("overflow delivered = %d, want 0", n)
	}
}

func TestHubAttemptGraded(t *testing.T) {
	h := NewHub()
	c := h.Register(5)
	score := 2.0

	h.AttemptGraded(context.Background(), services.GradedEvent{
		Attempt: models.StudentExam{ID: 9, StudentID: 5, ExamID: 3, AttemptNumber: 1, Status: models.AttemptGraded, Score: &score, MaxScore: 4, Passed: true},
		Exam:    models.Exam{ID: 3, Title: "Fractions"},
	})

	var got struct {
		Type string                 `json:"type"`
		Data map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(<-c.send, &got); err != nil {
		t.Fatal(err)
	}
	if got.Type != "attempt.graded" {
		t.Errorf("type = %q", got.Type)
	}
	if got.Data["status"] != "GRADED" || got.Data["passed"] != true {
		t.Errorf("data = %v", got.Data)
	}
}
