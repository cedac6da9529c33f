package places

import (
	"slices"
	"sync"

	"github.com/spigell/interest-filter/internal/domain"
)

// tagSet keeps insertion order so listings are stable.
type tagSet struct {
	order   []domain.Tag
	members map[domain.Tag]struct{}
}

func newTagSet(tags []domain.Tag) *tagSet {
	s := &tagSet{members: make(map[domain.Tag]struct{}, len(tags))}
	for _, t := range tags {
		s.add(t)
	}
	return s
}

func (s *tagSet) add(t domain.Tag) {
	if _, ok := s.members[t]; ok {
		return
	}
	s.members[t] = struct{}{}
	s.order = append(s.order, t)
}

// Index holds a mutable tag set per place id. Sets only grow.
type Index struct {
	mu   sync.RWMutex
	sets map[string]*tagSet
}

// New seeds an index with an independent copy of each place's tags.
// A repeated place id replaces the earlier seed.
func New(seed []domain.Place) *Index {
	idx := &Index{sets: make(map[string]*tagSet, len(seed))}
	for _, p := range seed {
		idx.sets[p.ID] = newTagSet(p.Tags)
	}
	return idx
}

// TagPlace adds a vocabulary tag to a place, creating its set when the place
// was never seeded. Adding a tag that is already present changes nothing.
func (i *Index) TagPlace(placeID string, tag domain.Tag) error {
	if placeID == "" {
		return domain.InvalidArgument("tagPlace", "placeId is required")
	}
	if !domain.IsAllowed(string(tag)) {
		return &domain.WhitelistError{Values: []string{string(tag)}}
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	set, ok := i.sets[placeID]
	if !ok {
		set = newTagSet(nil)
		i.sets[placeID] = set
	}
	set.add(tag)

	return nil
}

// Tags returns the tags of a place in insertion order, or an empty list when
// the place was never seeded or tagged.
func (i *Index) Tags(placeID string) []domain.Tag {
	tags, _ := i.Lookup(placeID)
	if tags == nil {
		return []domain.Tag{}
	}
	return tags
}

// Lookup is like Tags but reports whether the index knows the place at all.
func (i *Index) Lookup(placeID string) ([]domain.Tag, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	set, ok := i.sets[placeID]
	if !ok {
		return nil, false
	}
	return slices.Clone(set.order), true
}

// Len returns the number of places known to the index.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()

	return len(i.sets)
}
