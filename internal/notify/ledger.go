package notify

import (
	"container/heap"
	"sort"
	"sync"
	"time"

	"github.com/princekumarofficial/album-notify/internal/types"
)

// Ledger holds the pending batches and their deadlines. Each live entry owns
// exactly one deadline stamped with the entry's generation; older deadlines for
// the same key stay in the heap until they expire and are then skipped as stale.
//
// All methods are safe for concurrent use. None of them perform I/O.
type Ledger struct {
	mu        sync.Mutex
	entries   map[BatchKey]*ledgerEntry
	deadlines deadlineHeap
	nextGen   uint64
}

type ledgerEntry struct {
	batch      PendingBatch
	recipients map[string]struct{}
	generation uint64
	deadline   time.Time
}

func NewLedger() *Ledger {
	return &Ledger{entries: make(map[BatchKey]*ledgerEntry)}
}

// Record adds ev to its batch, creating the batch if needed, and moves the
// batch deadline to now+window. It reports whether a new batch was created.
func (l *Ledger) Record(ev MediaEvent, now time.Time, window time.Duration) bool {
	key := ev.Key()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &ledgerEntry{
			batch: PendingBatch{
				ActorID:      ev.ActorID,
				AlbumID:      ev.AlbumID,
				AlbumTitle:   ev.AlbumTitle,
				FirstEventAt: now,
			},
			recipients: make(map[string]struct{}, len(ev.Recipients)),
		}
		l.entries[key] = e
	}

	switch ev.Kind {
	case types.MediaPhoto:
		e.batch.PhotoCount++
	case types.MediaVideo:
		e.batch.VideoCount++
	}
	e.batch.LastEventAt = now
	for _, r := range ev.Recipients {
		e.recipients[r] = struct{}{}
	}

	l.nextGen++
	e.generation = l.nextGen
	e.deadline = now.Add(window)
	heap.Push(&l.deadlines, deadline{key: key, generation: e.generation, at: e.deadline})

	return !ok
}

// TakeExpired removes and returns every batch whose deadline is at or before
// now, oldest deadline first. stale counts superseded deadlines that were
// dropped on the way.
func (l *Ledger) TakeExpired(now time.Time) (due []PendingBatch, stale int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for l.deadlines.Len() > 0 && !l.deadlines[0].at.After(now) {
		d := heap.Pop(&l.deadlines).(deadline)
		e, ok := l.entries[d.key]
		if !ok || e.generation != d.generation {
			stale++
			continue
		}
		delete(l.entries, d.key)
		due = append(due, e.snapshot())
	}

	return due, stale
}

// TakeAll removes and returns every pending batch regardless of deadline.
func (l *Ledger) TakeAll() []PendingBatch {
	l.mu.Lock()
	defer l.mu.Unlock()

	due := make([]PendingBatch, 0, len(l.entries))
	for _, e := range l.entries {
		due = append(due, e.snapshot())
	}
	l.entries = make(map[BatchKey]*ledgerEntry)
	l.deadlines = nil

	sort.Slice(due, func(i, j int) bool {
		return due[i].FirstEventAt.Before(due[j].FirstEventAt)
	})
	return due
}

// DiscardActor drops every batch started by actorID, along with its deadlines,
// and returns how many batches were dropped.
func (l *Ledger) DiscardActor(actorID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	dropped := 0
	for key := range l.entries {
		if key.ActorID == actorID {
			delete(l.entries, key)
			dropped++
		}
	}
	if dropped == 0 {
		return 0
	}

	kept := l.deadlines[:0]
	for _, d := range l.deadlines {
		if d.key.ActorID != actorID {
			kept = append(kept, d)
		}
	}
	l.deadlines = kept
	heap.Init(&l.deadlines)

	return dropped
}

// Get returns a copy of the pending batch for key.
func (l *Ledger) Get(key BatchKey) (PendingBatch, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		return PendingBatch{}, false
	}
	return e.snapshot(), true
}

// Deadline returns the flush deadline of the pending batch for key.
func (l *Ledger) Deadline(key BatchKey) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		return time.Time{}, false
	}
	return e.deadline, true
}

// Len returns the number of pending batches and of queued deadlines,
// including superseded ones not yet swept.
func (l *Ledger) Len() (batches, deadlines int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries), l.deadlines.Len()
}

func (e *ledgerEntry) snapshot() PendingBatch {
	b := e.batch
	b.Recipients = make([]string, 0, len(e.recipients))
	for r := range e.recipients {
		b.Recipients = append(b.Recipients, r)
	}
	sort.Strings(b.Recipients)
	return b
}

type deadline struct {
	key        BatchKey
	generation uint64
	at         time.Time
}

type deadlineHeap []deadline

func (h deadlineHeap) Len() int { return len(h) }

func (h deadlineHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].generation < h[j].generation
	}
	return h[i].at.Before(h[j].at)
}

func (h deadlineHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *deadlineHeap) Push(x any) { *h = append(*h, x.(deadline)) }

func (h *deadlineHeap) Pop() any {
	old := *h
	n := len(old)
	d := old[n-1]
	*h = old[:n-1]
	return d
}
