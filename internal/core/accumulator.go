package core

import "sync"

type dedupKey struct {
	cinemaID uint64
	filmID   uint64
	at       int64
	version  string
	hasURL   bool
	url      string
}

func keyOf(s Seance) dedupKey {
	k := dedupKey{
		cinemaID: s.CinemaID,
		filmID:   s.FilmID,
		at:       s.At.UnixNano(),
		version:  s.Version,
	}
	if s.URL != nil {
		k.hasURL = true
		k.url = *s.URL
	}
	return k
}

// Accumulator collects seances from concurrent extractions, dropping exact
// duplicates and numbering survivors 1..N in acceptance order.
type Accumulator struct {
	mu      sync.Mutex
	seen    map[dedupKey]struct{}
	seances []Seance
}

func NewAccumulator() *Accumulator {
	return &Accumulator{seen: make(map[dedupKey]struct{})}
}

// Add assigns the next id to candidate and stores it, unless an equal seance was
// already accepted. Any id already set on candidate is ignored.
func (a *Accumulator) Add(candidate Seance) (Seance, bool) {
	key := keyOf(candidate)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.seen == nil {
		a.seen = make(map[dedupKey]struct{})
	}
	if _, dup := a.seen[key]; dup {
		return Seance{}, false
	}
	a.seen[key] = struct{}{}
	candidate.ID = uint64(len(a.seances)) + 1
	a.seances = append(a.seances, candidate)
	return candidate, true
}

func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.seances)
}

// Seances returns a copy of the accepted seances in id order.
func (a *Accumulator) Seances() []Seance {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Seance, len(a.seances))
	copy(out, a.seances)
	return out
}
