package queue

import (
	"testing"
	"time"

	"github.com/nodeforge/uamclient/internal/model"
)

func TestPushTakeFIFO(t *testing.T) {
	q := New()
	for i := 0; i < 3; i++ {
		q.Push(model.QueuedRequest{Request: model.AllocateRequest{ResponseID: int32(i)}})
	}
	if got := q.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}

	done := make(chan struct{})
	for i := 0; i < 3; i++ {
		item, ok := q.Take(done)
		if !ok {
			t.Fatalf("Take() ok = false, want true")
		}
		if item.Request.ResponseID != int32(i) {
			t.Fatalf("Take() order = %d, want %d", item.Request.ResponseID, i)
		}
	}
	if got := q.Len(); got != 0 {
		t.Fatalf("Len() after drain = %d, want 0", got)
	}
}

func TestTakeBlocksUntilPush(t *testing.T) {
	q := New()
	done := make(chan struct{})
	result := make(chan model.QueuedRequest, 1)

	go func() {
		item, ok := q.Take(done)
		if !ok {
			return
		}
		result <- item
	}()

	select {
	case <-result:
		t.Fatal("Take() returned before any item was pushed")
	case <-time.After(20 * time.Millisecond):
	}

	q.Push(model.QueuedRequest{Request: model.AllocateRequest{ResponseID: 7}})

	select {
	case item := <-result:
		if item.Request.ResponseID != 7 {
			t.Fatalf("Take() got ResponseID %d, want 7", item.Request.ResponseID)
		}
	case <-time.After(time.Second):
		t.Fatal("Take() never unblocked after Push")
	}
}

func TestTakeUnblocksOnDone(t *testing.T) {
	q := New()
	done := make(chan struct{})
	resultOK := make(chan bool, 1)

	go func() {
		_, ok := q.Take(done)
		resultOK <- ok
	}()

	close(done)

	select {
	case ok := <-resultOK:
		if ok {
			t.Fatal("Take() ok = true after done was closed, want false")
		}
	case <-time.After(time.Second):
		t.Fatal("Take() never returned after done was closed")
	}
}
