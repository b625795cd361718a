package domain

import "sort"

// Slot summarizes one instrument type on a session.
type Slot struct {
	InstrumentID int64
	Name         string
	Total        int
	Confirmed    int
}

// Full reports whether every slot of this type is taken.
func (s Slot) Full() bool {
	return s.Confirmed >= s.Total
}

// Slots groups required instruments by name, in first-seen order, and counts
// confirmed participants per name.
func (s JamSession) Slots() []Slot {
	index := make(map[string]int)
	var slots []Slot
	for _, inst := range s.RequiredInstruments {
		if i, ok := index[inst.Name]; ok {
			slots[i].Total++
			continue
		}
		index[inst.Name] = len(slots)
		slots = append(slots, Slot{InstrumentID: inst.ID, Name: inst.Name, Total: 1})
	}
	for _, c := range s.ConfirmedInstruments {
		if i, ok := index[c.InstrumentName]; ok {
			slots[i].Confirmed++
		}
	}
	return slots
}

// Slot returns the slot for the named instrument.
func (s JamSession) Slot(name string) (Slot, bool) {
	for _, slot := range s.Slots() {
		if slot.Name == name {
			return slot, true
		}
	}
	return Slot{}, false
}

// ConfirmedFor returns the confirmed instruments held by userID.
func (s JamSession) ConfirmedFor(userID int64) []InstrumentRating {
	if userID == 0 {
		return nil
	}
	var out []InstrumentRating
	for _, c := range s.ConfirmedInstruments {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out
}

// IsSignedUp reports whether userID already holds a slot.
func (s JamSession) IsSignedUp(userID int64) bool {
	return len(s.ConfirmedFor(userID)) > 0
}

// HasInstrument reports whether name is required or confirmed on the session.
func (s JamSession) HasInstrument(name string) bool {
	for _, i := range s.RequiredInstruments {
		if i.Name == name {
			return true
		}
	}
	for _, c := range s.ConfirmedInstruments {
		if c.InstrumentName == name {
			return true
		}
	}
	return false
}

// FilterSessions keeps sessions matching genre and instrument names. Empty
// filters match everything.
func FilterSessions(sessions []JamSession, genre, instrument string) []JamSession {
	out := make([]JamSession, 0, len(sessions))
	for _, s := range sessions {
		if genre != "" && s.MusicGenre.Name != genre {
			continue
		}
		if instrument != "" && !s.HasInstrument(instrument) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// SessionGenreOptions returns the sorted distinct genre names.
func SessionGenreOptions(sessions []JamSession) []string {
	set := make(map[string]struct{})
	for _, s := range sessions {
		if s.MusicGenre.Name != "" {
			set[s.MusicGenre.Name] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// SessionInstrumentOptions returns the sorted distinct instrument names.
func SessionInstrumentOptions(sessions []JamSession) []string {
	set := make(map[string]struct{})
	for _, s := range sessions {
		for _, i := range s.RequiredInstruments {
			if i.Name != "" {
				set[i.Name] = struct{}{}
			}
		}
		for _, c := range s.ConfirmedInstruments {
			if c.InstrumentName != "" {
				set[c.InstrumentName] = struct{}{}
			}
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
