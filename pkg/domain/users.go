package domain

// FilterUsers keeps users that like genre and play the named instrument.
// The instrument name is resolved through catalog; an unknown name matches
// nobody. Empty filters match everything.
func FilterUsers(users []User, catalog []Instrument, genre, instrument string) []User {
	var instrumentID int64
	if instrument != "" {
		for _, i := range catalog {
			if i.Name == instrument {
				instrumentID = i.ID
				break
			}
		}
		if instrumentID == 0 {
			return []User{}
		}
	}
	out := make([]User, 0, len(users))
	for _, u := range users {
		if genre != "" && !likesGenre(u, genre) {
			continue
		}
		if instrumentID != 0 && !playsInstrument(u, instrumentID) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// UserGenreOptions returns the sorted distinct favourite genre names.
func UserGenreOptions(users []User) []string {
	set := make(map[string]struct{})
	for _, u := range users {
		for _, g := range u.MusicGenres {
			if g.Name != "" {
				set[g.Name] = struct{}{}
			}
		}
	}
	return sortedKeys(set)
}

// InstrumentNames returns the sorted instrument names of catalog.
func InstrumentNames(catalog []Instrument) []string {
	set := make(map[string]struct{}, len(catalog))
	for _, i := range catalog {
		if i.Name != "" {
			set[i.Name] = struct{}{}
		}
	}
	return sortedKeys(set)
}

func likesGenre(u User, genre string) bool {
	for _, g := range u.MusicGenres {
		if g.Name == genre {
			return true
		}
	}
	return false
}

func playsInstrument(u User, instrumentID int64) bool {
	for _, r := range u.InstrumentsAndRatings {
		if r.InstrumentID == instrumentID {
			return true
		}
	}
	return false
}
