package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"jamsession/pkg/domain"
)

// Participant is a confirmed user on a session.
type Participant struct {
	UserID     int64
	Name       string
	Instrument string
	Rating     int
}

// PageView is everything the session page shows.
type PageView struct {
	Session      domain.JamSession
	Address      string
	Slots        []domain.Slot
	Participants []Participant
	Comments     []domain.Comment
	SignedUp     bool
	IsOwner      bool
	CanRemove    bool
}

// SessionPage implements the session detail screen: sign-up checks,
// leaving, removing participants and the page data.
type SessionPage struct {
	auth     *Auth
	users    *Users
	sessions *JamSessions
	comments *Comments
	images   *Images
	geocoder Geocoder
	notifier Notifier
}

// NewSessionPage builds the session page service. geocoder may be nil.
func NewSessionPage(auth *Auth, users *Users, sessions *JamSessions, comments *Comments, images *Images, geocoder Geocoder, n Notifier) *SessionPage {
	return &SessionPage{
		auth:     auth,
		users:    users,
		sessions: sessions,
		comments: comments,
		images:   images,
		geocoder: geocoder,
		notifier: n,
	}
}

// SignUp joins the current user to a session with the named instrument.
// All checks run before the join request: one slot per user per session,
// the user must list the instrument, and a slot must be free.
func (p *SessionPage) SignUp(ctx context.Context, sessionID int64, instrument string) error {
	userID, ok := p.auth.CurrentUserID()
	if !ok {
		return ErrNotLoggedIn
	}
	session, err := p.sessions.Get(ctx, sessionID, false)
	if err != nil {
		return err
	}
	if session.IsSignedUp(userID) {
		p.notifier.Notify(MsgAlreadySignedUp)
		return ErrAlreadySignedUp
	}
	user, err := p.users.Get(ctx, userID, false)
	if err != nil {
		return err
	}
	if len(user.InstrumentsAndRatings) == 0 {
		p.notifier.Notify(MsgNoInstruments)
		return ErrNoInstruments
	}
	rating, ok := user.RatingFor(instrument)
	if !ok || rating.ID == 0 {
		p.notifier.Notify(msgInstrumentNotInProfile(instrument))
		return fmt.Errorf("%w: %s", ErrInstrumentNotInProfile, instrument)
	}
	slot, ok := session.Slot(instrument)
	if !ok {
		return invalid("session does not need %s", instrument)
	}
	if slot.Full() {
		p.notifier.Notify(MsgSlotFull)
		return ErrSlotFull
	}
	if err := p.sessions.Join(ctx, sessionID, rating.ID); err != nil {
		p.notifier.Notify(MsgSignUpFailed)
		return err
	}
	p.notifier.Notify(MsgSignedUp)
	return nil
}

// LeaveSelf removes the current user from a session.
func (p *SessionPage) LeaveSelf(ctx context.Context, sessionID int64) error {
	userID, ok := p.auth.CurrentUserID()
	if !ok {
		return ErrNotLoggedIn
	}
	if err := p.sessions.Leave(ctx, sessionID, userID); err != nil {
		p.notifier.Notify(MsgLeaveFailed)
		return err
	}
	p.notifier.Notify(MsgLeft)
	return nil
}

// RemoveParticipant removes another user. Only the owner or an admin may.
func (p *SessionPage) RemoveParticipant(ctx context.Context, sessionID, userID int64) error {
	session, err := p.sessions.Get(ctx, sessionID, false)
	if err != nil {
		return err
	}
	if !p.canRemove(session) {
		return ErrNotAllowed
	}
	name := "User"
	if u, err := p.users.Get(ctx, userID, false); err == nil && u.Name != "" {
		name = u.Name
	}
	if err := p.sessions.Leave(ctx, sessionID, userID); err != nil {
		p.notifier.Notify(MsgRemoveFailed)
		return err
	}
	p.notifier.Notify(msgParticipantRemoved(name))
	return nil
}

// Page loads the session with its address, participants and comments, and
// preloads comment images. Address and comment failures degrade the page
// instead of failing it.
func (p *SessionPage) Page(ctx context.Context, sessionID int64, force bool) (PageView, error) {
	session, err := p.sessions.Get(ctx, sessionID, force)
	if err != nil {
		return PageView{}, err
	}
	view := PageView{Session: session, Slots: session.Slots()}
	userID, loggedIn := p.auth.CurrentUserID()
	if loggedIn {
		view.SignedUp = session.IsSignedUp(userID)
		view.IsOwner = session.Owner.ID == userID
	}
	view.CanRemove = p.canRemove(session)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		view.Address = p.address(gctx, session.Location)
		return nil
	})
	g.Go(func() error {
		comments, err := p.comments.Load(gctx, sessionID, force)
		if err != nil {
			slog.Warn("page comments unavailable", "session_id", sessionID, "err", err)
			comments = []domain.Comment{}
		}
		view.Comments = comments
		return nil
	})
	g.Go(func() error {
		view.Participants = p.participants(gctx, session)
		return nil
	})
	_ = g.Wait()

	if p.images != nil {
		p.images.Preload(ctx, domain.ImagePaths(view.Comments))
	}
	return view, nil
}

func (p *SessionPage) canRemove(session domain.JamSession) bool {
	userID, ok := p.auth.CurrentUserID()
	if !ok {
		return false
	}
	return session.Owner.ID == userID || p.auth.IsAdmin()
}

func (p *SessionPage) address(ctx context.Context, loc domain.Location) string {
	if p.geocoder == nil {
		return fmt.Sprintf("%.5f, %.5f", loc.Latitude, loc.Longitude)
	}
	addr, err := p.geocoder.Reverse(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		slog.Warn("reverse geocode failed", "lat", loc.Latitude, "lng", loc.Longitude, "err", err)
		return fmt.Sprintf("%.5f, %.5f", loc.Latitude, loc.Longitude)
	}
	return addr.String()
}

func (p *SessionPage) participants(ctx context.Context, session domain.JamSession) []Participant {
	out := make([]Participant, 0, len(session.ConfirmedInstruments))
	for _, c := range session.ConfirmedInstruments {
		name := "Unknown"
		if u, err := p.users.Get(ctx, c.UserID, false); err == nil && u.Name != "" {
			name = u.Name
		}
		out = append(out, Participant{UserID: c.UserID, Name: name, Instrument: c.InstrumentName, Rating: c.Rating})
	}
	return out
}
