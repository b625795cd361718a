package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// StartTimeLayout is the local date-time format the backend uses for
// session start times.
const StartTimeLayout = "2006-01-02T15:04:05"

type ReactionType string

const (
	ReactionLike  ReactionType = "LIKE"
	ReactionLove  ReactionType = "LOVE"
	ReactionHaha  ReactionType = "HAHA"
	ReactionSad   ReactionType = "SAD"
	ReactionAngry ReactionType = "ANGRY"
)

// ReactionTypes lists reactions in display order.
var ReactionTypes = []ReactionType{ReactionLike, ReactionLove, ReactionHaha, ReactionSad, ReactionAngry}

// ParseReaction accepts a reaction name in any case.
func ParseReaction(s string) (ReactionType, bool) {
	r := ReactionType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range ReactionTypes {
		if r == known {
			return r, true
		}
	}
	return "", false
}

// Emoji returns the symbol shown next to a reaction.
func (r ReactionType) Emoji() string {
	switch r {
	case ReactionLike:
		return "👍"
	case ReactionLove:
		return "❤️"
	case ReactionHaha:
		return "😂"
	case ReactionSad:
		return "😢"
	case ReactionAngry:
		return "😠"
	default:
		return ""
	}
}

type MusicGenre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Instrument struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// InstrumentRating is a user's self-rated skill on one instrument.
type InstrumentRating struct {
	ID             int64  `json:"id"`
	InstrumentID   int64  `json:"instrumentId"`
	InstrumentName string `json:"instrumentName"`
	UserID         int64  `json:"userId"`
	Rating         int    `json:"rating"`
}

type User struct {
	ID                    int64              `json:"id"`
	Name                  string             `json:"name"`
	Email                 string             `json:"email"`
	Bio                   string             `json:"bio"`
	ProfilePictureID      *int64             `json:"profilePictureId,omitempty"`
	MusicGenres           []MusicGenre       `json:"musicGenres"`
	InstrumentsAndRatings []InstrumentRating `json:"instrumentsAndRatings"`
}

// RatingFor returns the user's rating entry for the named instrument.
func (u User) RatingFor(instrumentName string) (InstrumentRating, bool) {
	for _, r := range u.InstrumentsAndRatings {
		if r.InstrumentName == instrumentName {
			return r, true
		}
	}
	return InstrumentRating{}, false
}

type ShortUser struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type JamSession struct {
	ID                   int64              `json:"id"`
	Owner                ShortUser          `json:"owner"`
	ConfirmedInstruments []InstrumentRating `json:"confirmedInstruments"`
	StartTime            string             `json:"startTime"`
	Location             Location           `json:"location"`
	RequiredInstruments  []Instrument       `json:"requiredInstruments"`
	MusicGenre           MusicGenre         `json:"musicGenre"`
}

// Start parses StartTime in the backend's local date-time layout.
func (s JamSession) Start() (time.Time, error) {
	return time.ParseInLocation(StartTimeLayout, s.StartTime, time.Local)
}

// EditJamSession carries the optional fields of a session edit.
type EditJamSession struct {
	ConfirmedInstrumentsIDs []int64   `json:"confirmedInstrumentsIds,omitempty"`
	RequiredInstrumentsIDs  []int64   `json:"requiredInstrumentsIds,omitempty"`
	StartTime               string    `json:"startTime,omitempty"`
	Location                *Location `json:"location,omitempty"`
	MusicGenreID            *int64    `json:"musicGenreId,omitempty"`
}

// NewJamSession is the create payload.
type NewJamSession struct {
	StartTime           string   `json:"startTime"`
	Location            Location `json:"location"`
	RequiredInstruments []IDRef  `json:"requiredInstruments"`
	MusicGenreID        int64    `json:"musicGenreId"`
}

type IDRef struct {
	ID int64 `json:"id"`
}

// FlexibleID decodes an id sent either as a JSON number or a string.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexibleID(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = FlexibleID(s)
	return nil
}

// Int64 returns the id as a number when it is one.
func (f FlexibleID) Int64() (int64, bool) {
	n, err := strconv.ParseInt(string(f), 10, 64)
	return n, err == nil
}

type CommentAuthor struct {
	ID   FlexibleID `json:"id"`
	Name string     `json:"name"`
}

type Comment struct {
	ID              int64                `json:"id"`
	Author          CommentAuthor        `json:"author"`
	Message         string               `json:"message"`
	ImageURL        string               `json:"imageUrl,omitempty"`
	CreatedAt       string               `json:"createdAt"`
	ParentID        *int64               `json:"parentId,omitempty"`
	ReactionCount   int                  `json:"reactionCount"`
	ReactionSummary map[ReactionType]int `json:"reactionSummary"`
	Replies         []Comment            `json:"replies"`
}

// CanReply reports whether the comment accepts replies. Only top-level
// comments do.
func (c Comment) CanReply() bool {
	return c.ParentID == nil
}

// ImagePaths collects image paths of comments and their replies.
func ImagePaths(comments []Comment) []string {
	var out []string
	for _, c := range comments {
		if c.ImageURL != "" {
			out = append(out, c.ImageURL)
		}
		out = append(out, ImagePaths(c.Replies)...)
	}
	return out
}
