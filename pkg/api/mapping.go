package api

import (
	"fmt"

	"github.com/tidwall/gjson"

	"jamsession/pkg/domain"
)

// The backend is not consistent about field names (ownerDto vs owner,
// nested instrument vs flat instrumentId), so responses are read with gjson
// and mapped field by field.

func parseArray(body []byte) ([]gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformedResponse
	}
	res := gjson.ParseBytes(body)
	if res.Type == gjson.Null {
		return nil, nil
	}
	if !res.IsArray() {
		return nil, fmt.Errorf("%w: expected array", ErrMalformedResponse)
	}
	return res.Array(), nil
}

func parseObject(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, ErrMalformedResponse
	}
	res := gjson.ParseBytes(body)
	if !res.IsObject() {
		return gjson.Result{}, fmt.Errorf("%w: expected object", ErrMalformedResponse)
	}
	return res, nil
}

// firstInt returns the first non-zero integer among paths.
func firstInt(v gjson.Result, paths ...string) int64 {
	for _, p := range paths {
		if n := v.Get(p).Int(); n != 0 {
			return n
		}
	}
	return 0
}

// firstString returns the first non-empty string among paths.
func firstString(v gjson.Result, paths ...string) string {
	for _, p := range paths {
		if s := v.Get(p).String(); s != "" {
			return s
		}
	}
	return ""
}

func userFrom(v gjson.Result) domain.User {
	u := domain.User{
		ID:                    v.Get("id").Int(),
		Name:                  v.Get("name").String(),
		Email:                 v.Get("email").String(),
		Bio:                   v.Get("bio").String(),
		MusicGenres:           []domain.MusicGenre{},
		InstrumentsAndRatings: []domain.InstrumentRating{},
	}
	if p := v.Get("profilePictureId"); p.Exists() && p.Type != gjson.Null {
		id := p.Int()
		u.ProfilePictureID = &id
	}
	for _, path := range []string{"favoriteGenres", "favouriteGenres", "musicGenres"} {
		if genres := v.Get(path); genres.IsArray() {
			for _, g := range genres.Array() {
				u.MusicGenres = append(u.MusicGenres, genreFrom(g))
			}
			break
		}
	}
	return u
}

func genreFrom(v gjson.Result) domain.MusicGenre {
	return domain.MusicGenre{ID: v.Get("id").Int(), Name: v.Get("name").String()}
}

func instrumentFrom(v gjson.Result) domain.Instrument {
	return domain.Instrument{
		ID:   firstInt(v, "instrument.id", "id"),
		Name: firstString(v, "instrument.name", "name"),
	}
}

func ratingFrom(v gjson.Result) domain.InstrumentRating {
	return domain.InstrumentRating{
		ID:             v.Get("id").Int(),
		InstrumentID:   firstInt(v, "instrument.id", "instrumentId"),
		InstrumentName: firstString(v, "instrument.name", "instrumentName", "name"),
		UserID:         v.Get("userId").Int(),
		Rating:         int(v.Get("rating").Int()),
	}
}

func sessionFrom(v gjson.Result) domain.JamSession {
	s := domain.JamSession{
		ID:                   v.Get("id").Int(),
		Owner:                ownerFrom(v),
		ConfirmedInstruments: []domain.InstrumentRating{},
		StartTime:            startTimeFrom(v.Get("startTime")),
		Location: domain.Location{
			Latitude:  v.Get("location.latitude").Float(),
			Longitude: v.Get("location.longitude").Float(),
		},
		RequiredInstruments: []domain.Instrument{},
		MusicGenre:          genreFrom(v.Get("musicGenre")),
	}
	for _, c := range v.Get("confirmedInstruments").Array() {
		s.ConfirmedInstruments = append(s.ConfirmedInstruments, ratingFrom(c))
	}
	for _, r := range v.Get("requiredInstruments").Array() {
		s.RequiredInstruments = append(s.RequiredInstruments, instrumentFrom(r))
	}
	return s
}

func ownerFrom(v gjson.Result) domain.ShortUser {
	for _, path := range []string{"ownerDto", "owner"} {
		if o := v.Get(path); o.IsObject() {
			return domain.ShortUser{ID: o.Get("id").Int(), Name: o.Get("name").String()}
		}
	}
	return domain.ShortUser{ID: 0, Name: "Unknown"}
}

// startTimeFrom accepts the ISO string form and the [y,m,d,h,m(,s)] array
// form some serializers emit.
func startTimeFrom(v gjson.Result) string {
	if !v.IsArray() {
		return v.String()
	}
	parts := v.Array()
	if len(parts) < 5 {
		return ""
	}
	sec := int64(0)
	if len(parts) > 5 {
		sec = parts[5].Int()
	}
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d",
		parts[0].Int(), parts[1].Int(), parts[2].Int(), parts[3].Int(), parts[4].Int(), sec)
}
