// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"sort"

	"github.com/pdiddy/track-resolver/pkg/types"
)

// FromConfig builds the enabled adapters from cfg, each wrapped in its
// rate limiter. Adapters come back ordered by priority then name so
// fan-out and CLI listings are deterministic. Contact is forwarded to
// adapters that identify their operator (MusicBrainz requires it).
func FromConfig(cfg types.ResolverConfig, contact string) []Adapter {
	type entry struct {
		name     string
		priority int
		adapter  Adapter
	}

	var entries []entry
	for name, sc := range cfg.Sources {
		if !sc.Enabled {
			continue
		}
		var a Adapter
		switch name {
		case "musicbrainz":
			a = &MusicBrainzAdapter{Contact: contact}
		case "deezer":
			a = &DeezerAdapter{}
		case "itunes":
			a = &ITunesAdapter{}
		default:
			continue // unknown source name in config
		}
		entries = append(entries, entry{name: name, priority: sc.Priority, adapter: Limit(a, sc)})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority < entries[j].priority
		}
		return entries[i].name < entries[j].name
	})

	adapters := make([]Adapter, len(entries))
	for i, e := range entries {
		adapters[i] = e.adapter
	}
	return adapters
}
