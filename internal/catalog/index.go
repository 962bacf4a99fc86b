package catalog

import "github.com/thomasarchive/archive/internal/deeplink"

// Index maps episode identifiers to episodes. It is built once per load
// and is the only place episode identity is looked up.
type Index struct {
	byID  map[deeplink.EpisodeID]Episode
	order []deeplink.EpisodeID
}

func NewIndex(sections []Section) *Index {
	idx := &Index{byID: make(map[deeplink.EpisodeID]Episode)}
	for _, sec := range sections {
		for _, ep := range sec.Episodes {
			if ep.ID.IsZero() {
				continue
			}
			if _, dup := idx.byID[ep.ID]; dup {
				continue
			}
			idx.byID[ep.ID] = ep
			idx.order = append(idx.order, ep.ID)
		}
	}
	return idx
}

func (i *Index) Lookup(id deeplink.EpisodeID) (Episode, bool) {
	if i == nil {
		return Episode{}, false
	}
	ep, ok := i.byID[id]
	return ep, ok
}

func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.order)
}

// Episodes returns indexed episodes in catalog order.
func (i *Index) Episodes() []Episode {
	if i == nil {
		return nil
	}
	out := make([]Episode, 0, len(i.order))
	for _, id := range i.order {
		out = append(out, i.byID[id])
	}
	return out
}
