package journal

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/mbrock/go-journald/internal/libsd/memstore"
)

func TestEntriesTerminates(t *testing.T) {
	store := memstore.New()
	for i := range 3 {
		mustSubmit(t, store, map[string]string{"MESSAGE": fmt.Sprintf("e%d", i)})
	}

	r := openTestReader(t, store)
	if err := r.Seek(Head{}); err != nil {
		t.Fatalf("seek head: %v", err)
	}

	var got []string
	for e, err := range r.Entries() {
		if err != nil {
			t.Fatalf("entries: %v", err)
		}
		msg, _ := e.Message()
		got = append(got, msg)
	}
	if want := []string{"e0", "e1", "e2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("entries = %v, want %v", got, want)
	}

	// The sequence drained the live cursor; a second pass sees nothing
	// until a seek.
	count := 0
	for _, err := range r.Entries() {
		if err != nil {
			t.Fatalf("second pass: %v", err)
		}
		count++
	}
	if count != 0 {
		t.Errorf("second pass yielded %d entries, want 0", count)
	}
}

func TestEntriesEarlyBreak(t *testing.T) {
	store := memstore.New()
	for i := range 3 {
		mustSubmit(t, store, map[string]string{"MESSAGE": fmt.Sprintf("e%d", i)})
	}

	r := openTestReader(t, store)
	if err := r.Seek(Head{}); err != nil {
		t.Fatalf("seek head: %v", err)
	}

	for range r.Entries() {
		break
	}
	// Breaking leaves the cursor where it stopped.
	e, err := r.NextEntry()
	if err != nil || e == nil {
		t.Fatalf("next after break = %v, %v; want entry", e, err)
	}
	if msg, _ := e.Message(); msg != "e1" {
		t.Errorf("next after break = %q, want e1", msg)
	}
}

func TestFollowDeliversLateEntries(t *testing.T) {
	store := memstore.New()
	mustSubmit(t, store, map[string]string{"MESSAGE": "first"})

	r := openTestReader(t, store)
	if err := r.Seek(Head{}); err != nil {
		t.Fatalf("seek head: %v", err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		mustSubmitAsync(store)
	}()

	var got []string
	for e, err := range r.Follow(context.Background(), 500*time.Millisecond) {
		if err != nil {
			t.Fatalf("follow: %v", err)
		}
		msg, _ := e.Message()
		got = append(got, msg)
	}
	// The pass ends at the first quiet wait after the writer stops.
	if want := []string{"first", "late arrival"}; !reflect.DeepEqual(got, want) {
		t.Errorf("follow = %v, want %v", got, want)
	}
}

func TestFollowRetriesAfterInvalidate(t *testing.T) {
	store := memstore.New()
	mustSubmit(t, store, map[string]string{"MESSAGE": "first"})

	r := openTestReader(t, store)
	if err := r.Seek(Head{}); err != nil {
		t.Fatalf("seek head: %v", err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		store.Invalidate()
		time.Sleep(50 * time.Millisecond)
		mustSubmitAsync(store)
	}()

	var got []string
	for e, err := range r.Follow(context.Background(), 500*time.Millisecond) {
		if err != nil {
			t.Fatalf("follow: %v", err)
		}
		msg, _ := e.Message()
		got = append(got, msg)
	}
	// Invalidation alone carries no record: it triggers a re-read, it
	// is never surfaced as data.
	if want := []string{"first", "late arrival"}; !reflect.DeepEqual(got, want) {
		t.Errorf("follow = %v, want %v", got, want)
	}
}

func TestFollowStopsWhenCancelled(t *testing.T) {
	store := memstore.New()
	mustSubmit(t, store, map[string]string{"MESSAGE": "first"})

	r := openTestReader(t, store)
	if err := r.Seek(Head{}); err != nil {
		t.Fatalf("seek head: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	count := 0
	for _, err := range r.Follow(ctx, 100*time.Millisecond) {
		if err != nil {
			t.Fatalf("follow: %v", err)
		}
		count++
	}
	if count != 0 {
		t.Errorf("cancelled follow yielded %d entries, want 0", count)
	}
}
