package queue

import (
	"context"
	"errors"
	"sync"
	"testing"

	"LinkAnalyzer/internal/domain"
)

func TestQueueProcessesInFIFOOrder(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var seen []string

	q := New(func(ctx context.Context, task domain.LinkTask) error {
		mu.Lock()
		seen = append(seen, task.URL)
		mu.Unlock()
		return nil
	}, 0, nil)

	ctx := context.Background()
	for _, u := range []string{"https://a.com/1", "https://b.com/2", "https://c.com/3"} {
		q.Enqueue(ctx, domain.LinkTask{URL: u})
	}
	q.Wait()

	want := []string{"https://a.com/1", "https://b.com/2", "https://c.com/3"}
	for i, u := range want {
		if seen[i] != u {
			t.Fatalf("position %d: expected %s, got %s", i, u, seen[i])
		}
	}
}

func TestQueueSingleFlight(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	inFlight := 0
	maxInFlight := 0

	q := New(func(ctx context.Context, task domain.LinkTask) error {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		mu.Lock()
		inFlight--
		mu.Unlock()
		return nil
	}, 0, nil)

	ctx := context.Background()
	for i := 0; i < 50; i++ {
		q.Enqueue(ctx, domain.LinkTask{URL: "https://a.com/x"})
	}
	q.Wait()

	if maxInFlight != 1 {
		t.Fatalf("expected at most 1 task in flight, saw %d", maxInFlight)
	}
}

func TestQueueSurvivesFailuresAndPanics(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	processed := 0

	q := New(func(ctx context.Context, task domain.LinkTask) error {
		mu.Lock()
		processed++
		n := processed
		mu.Unlock()

		switch n {
		case 1:
			return errors.New("scrape failed")
		case 2:
			panic("programming error")
		}
		return nil
	}, 0, nil)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		q.Enqueue(ctx, domain.LinkTask{URL: "https://a.com/x"})
	}
	q.Wait()

	mu.Lock()
	defer mu.Unlock()
	if processed != 3 {
		t.Fatalf("expected all 3 tasks handled, got %d", processed)
	}
}
