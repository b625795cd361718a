package domain

import (
	"encoding/json"
	"testing"
)

func sampleSession() JamSession {
	return JamSession{
		ID:         1,
		Owner:      ShortUser{ID: 10, Name: "owner"},
		StartTime:  "2025-06-01T19:30:00",
		MusicGenre: MusicGenre{ID: 3, Name: "Jazz"},
		RequiredInstruments: []Instrument{
			{ID: 1, Name: "Guitar"},
			{ID: 2, Name: "Drums"},
			{ID: 1, Name: "Guitar"},
		},
		ConfirmedInstruments: []InstrumentRating{
			{ID: 100, InstrumentID: 2, InstrumentName: "Drums", UserID: 20, Rating: 4},
		},
	}
}

func TestSlotsGroupsRequiredAndCountsConfirmed(t *testing.T) {
	slots := sampleSession().Slots()
	if len(slots) != 2 {
		t.Fatalf("expected 2 slot groups, got %d", len(slots))
	}
	if slots[0].Name != "Guitar" || slots[0].Total != 2 || slots[0].Confirmed != 0 {
		t.Fatalf("unexpected guitar slot: %+v", slots[0])
	}
	if slots[1].Name != "Drums" || slots[1].Total != 1 || slots[1].Confirmed != 1 || !slots[1].Full() {
		t.Fatalf("unexpected drums slot: %+v", slots[1])
	}
}

func TestIsSignedUp(t *testing.T) {
	s := sampleSession()
	if !s.IsSignedUp(20) {
		t.Fatalf("user 20 holds a slot")
	}
	if s.IsSignedUp(21) || s.IsSignedUp(0) {
		t.Fatalf("only user 20 holds a slot")
	}
}

func TestStartParsesLocalDateTime(t *testing.T) {
	start, err := sampleSession().Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if start.Hour() != 19 || start.Minute() != 30 || start.Day() != 1 {
		t.Fatalf("unexpected start: %v", start)
	}
}

func TestFilterSessionsAndOptions(t *testing.T) {
	other := sampleSession()
	other.ID = 2
	other.MusicGenre = MusicGenre{ID: 4, Name: "Blues"}
	other.RequiredInstruments = []Instrument{{ID: 5, Name: "Bass"}}
	other.ConfirmedInstruments = nil
	sessions := []JamSession{sampleSession(), other}

	if got := FilterSessions(sessions, "Jazz", ""); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("genre filter: %+v", got)
	}
	if got := FilterSessions(sessions, "", "Bass"); len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("instrument filter: %+v", got)
	}
	if got := FilterSessions(sessions, "", ""); len(got) != 2 {
		t.Fatalf("empty filters should match all, got %d", len(got))
	}
	genres := SessionGenreOptions(sessions)
	if len(genres) != 2 || genres[0] != "Blues" || genres[1] != "Jazz" {
		t.Fatalf("genre options: %v", genres)
	}
	instruments := SessionInstrumentOptions(sessions)
	if len(instruments) != 3 || instruments[0] != "Bass" {
		t.Fatalf("instrument options: %v", instruments)
	}
}

func TestFilterUsersResolvesInstrumentThroughCatalog(t *testing.T) {
	catalog := []Instrument{{ID: 1, Name: "Guitar"}, {ID: 2, Name: "Drums"}}
	users := []User{
		{ID: 1, Name: "a", MusicGenres: []MusicGenre{{ID: 1, Name: "Rock"}}, InstrumentsAndRatings: []InstrumentRating{{InstrumentID: 1}}},
		{ID: 2, Name: "b", MusicGenres: []MusicGenre{{ID: 2, Name: "Jazz"}}, InstrumentsAndRatings: []InstrumentRating{{InstrumentID: 2}}},
	}
	if got := FilterUsers(users, catalog, "", "Drums"); len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("instrument filter: %+v", got)
	}
	if got := FilterUsers(users, catalog, "Rock", "Drums"); len(got) != 0 {
		t.Fatalf("combined filter should match nobody: %+v", got)
	}
	if got := FilterUsers(users, catalog, "", "Tuba"); len(got) != 0 {
		t.Fatalf("unknown instrument should match nobody: %+v", got)
	}
	if got := UserGenreOptions(users); len(got) != 2 || got[0] != "Jazz" {
		t.Fatalf("genre options: %v", got)
	}
}

func TestCommentDecodesNumericAndStringAuthorIDs(t *testing.T) {
	var comments []Comment
	data := `[{"id":1,"author":{"id":5,"name":"a"},"message":"hi","reactionSummary":{"LIKE":2},
		"replies":[{"id":2,"author":{"id":"6","name":"b"},"message":"yo","parentId":1,"imageUrl":"images/9"}]}]`
	if err := json.Unmarshal([]byte(data), &comments); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if id, ok := comments[0].Author.ID.Int64(); !ok || id != 5 {
		t.Fatalf("numeric author id: %q", comments[0].Author.ID)
	}
	reply := comments[0].Replies[0]
	if id, ok := reply.Author.ID.Int64(); !ok || id != 6 {
		t.Fatalf("string author id: %q", reply.Author.ID)
	}
	if !comments[0].CanReply() || reply.CanReply() {
		t.Fatalf("only top-level comments accept replies")
	}
	if comments[0].ReactionSummary[ReactionLike] != 2 {
		t.Fatalf("reaction summary: %v", comments[0].ReactionSummary)
	}
	if paths := ImagePaths(comments); len(paths) != 1 || paths[0] != "images/9" {
		t.Fatalf("image paths: %v", paths)
	}
}

func TestParseReaction(t *testing.T) {
	if r, ok := ParseReaction("love"); !ok || r != ReactionLove {
		t.Fatalf("parse love: %q %v", r, ok)
	}
	if _, ok := ParseReaction("meh"); ok {
		t.Fatalf("unknown reaction should fail")
	}
}
