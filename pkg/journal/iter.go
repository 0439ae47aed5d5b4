package journal

import (
	"context"
	"iter"
	"time"
)

// Entries returns a lazy, finite, single-pass sequence over the
// remaining records: it repeatedly reads forward and terminates the
// first time no further record exists. The sequence reflects the
// Reader's live cursor, so it is single-consumer: two sequences over
// the same Reader interleave destructively.
func (r *Reader) Entries() iter.Seq2[*Entry, error] {
	return func(yield func(*Entry, error) bool) {
		for {
			e, err := r.NextEntry()
			if err != nil {
				yield(nil, err)
				return
			}
			if e == nil {
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

// Follow returns a blocking sequence for live tailing: on exhausting
// available records it waits for the journal to change and resumes
// reading. Invalidation wakeups trigger a re-read rather than
// surfacing to the caller, since invalidation alone carries no record.
//
// With waitTimeout > 0 the sequence ends when a wait elapses with no
// event (one poll pass); with waitTimeout == 0 waits are unbounded.
// Cancellation is checked between waits, so callers that need prompt
// cancellation should pass a finite waitTimeout. Single-consumer, like
// Entries.
func (r *Reader) Follow(ctx context.Context, waitTimeout time.Duration) iter.Seq2[*Entry, error] {
	return func(yield func(*Entry, error) bool) {
		for {
			if ctx.Err() != nil {
				return
			}
			e, err := r.NextEntry()
			if err != nil {
				yield(nil, err)
				return
			}
			if e != nil {
				if !yield(e, nil) {
					return
				}
				continue
			}

			var wake WakeupType
			if waitTimeout > 0 {
				wake, err = r.WaitTimeout(waitTimeout)
			} else {
				wake, err = r.Wait()
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if wake == WakeupNop {
				if waitTimeout > 0 {
					return
				}
				continue
			}
			// Append or Invalidate: retry the read.
		}
	}
}
