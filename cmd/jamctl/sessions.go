package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"jamsession/internal/app"
	"jamsession/pkg/domain"
)

func (c *cli) sessions(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageErr("sessions list|own|signed-up|show|create|edit|delete|join|leave|kick")
	}
	rest := args[1:]
	switch args[0] {
	case "list":
		return c.sessionsList(ctx, rest)
	case "own", "signed-up":
		return c.sessionsFor(ctx, args[0], rest)
	case "show":
		return c.sessionsShow(ctx, rest)
	case "create":
		return c.sessionsCreate(ctx, rest)
	case "edit":
		return c.sessionsEdit(ctx, rest)
	case "delete":
		ids, err := argIDs(rest, "session id")
		if err != nil {
			return err
		}
		if err := c.app.Sessions.Delete(ctx, ids[0]); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "session %d deleted\n", ids[0])
		return nil
	case "join":
		if len(rest) < 2 {
			return usageErr("sessions join <id> <instrument>")
		}
		id, err := parseID(rest[0], "session id")
		if err != nil {
			return err
		}
		return c.app.Page.SignUp(ctx, id, strings.Join(rest[1:], " "))
	case "leave":
		ids, err := argIDs(rest, "session id")
		if err != nil {
			return err
		}
		return c.app.Page.LeaveSelf(ctx, ids[0])
	case "kick":
		ids, err := argIDs(rest, "session id", "user id")
		if err != nil {
			return err
		}
		return c.app.Page.RemoveParticipant(ctx, ids[0], ids[1])
	default:
		return usageErr("unknown sessions command %q", args[0])
	}
}

func (c *cli) sessionsList(ctx context.Context, args []string) error {
	fs := c.flags("sessions list")
	genre := fs.String("genre", "", "only sessions of this genre")
	instrument := fs.String("instrument", "", "only sessions needing this instrument")
	refresh := fs.Bool("refresh", false, "bypass the cache")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	sessions, err := c.app.Sessions.GetAll(ctx, *refresh)
	if err != nil {
		return err
	}
	c.printSessions(domain.FilterSessions(sessions, *genre, *instrument))
	return nil
}

func (c *cli) sessionsFor(ctx context.Context, which string, args []string) error {
	fs := c.flags("sessions " + which)
	user := fs.Int64("user", 0, "user id (default: logged in user)")
	refresh := fs.Bool("refresh", false, "bypass the cache")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	userID, err := c.userOrCurrent(*user)
	if err != nil {
		return err
	}
	var sessions []domain.JamSession
	if which == "own" {
		sessions, err = c.app.Sessions.GetOwned(ctx, userID, *refresh)
	} else {
		sessions, err = c.app.Sessions.GetSignedUp(ctx, userID, *refresh)
	}
	if err != nil {
		return err
	}
	c.printSessions(sessions)
	return nil
}

func (c *cli) sessionsShow(ctx context.Context, args []string) error {
	fs := c.flags("sessions show")
	refresh := fs.Bool("refresh", false, "bypass the cache")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	ids, err := argIDs(fs.Args(), "session id")
	if err != nil {
		return err
	}
	view, err := c.app.Page.Page(ctx, ids[0], *refresh)
	if err != nil {
		return err
	}
	s := view.Session
	fmt.Fprintf(c.out, "session %d  %s\n", s.ID, s.MusicGenre.Name)
	fmt.Fprintf(c.out, "owner:    %s (%d)\n", s.Owner.Name, s.Owner.ID)
	fmt.Fprintf(c.out, "starts:   %s\n", startLabel(s))
	fmt.Fprintf(c.out, "where:    %s\n", view.Address)
	switch {
	case view.IsOwner:
		fmt.Fprintln(c.out, "you own this session")
	case view.SignedUp:
		fmt.Fprintln(c.out, "you are signed up")
	}

	tw := c.table()
	fmt.Fprintln(tw, "\nINSTRUMENT\tTAKEN\tSTATUS")
	for _, slot := range view.Slots {
		status := "open"
		if slot.Full() {
			status = "full"
		}
		fmt.Fprintf(tw, "%s\t%d/%d\t%s\n", slot.Name, slot.Confirmed, slot.Total, status)
	}
	_ = tw.Flush()

	if len(view.Participants) > 0 {
		tw = c.table()
		fmt.Fprintln(tw, "\nUSER ID\tNAME\tINSTRUMENT\tRATING")
		for _, p := range view.Participants {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", p.UserID, p.Name, p.Instrument, p.Rating)
		}
		_ = tw.Flush()
	}

	fmt.Fprintln(c.out)
	c.printComments(view.Comments)
	return nil
}

func (c *cli) sessionsCreate(ctx context.Context, args []string) error {
	fs := c.flags("sessions create")
	date := fs.String("date", "", "start date YYYY-MM-DD")
	clock := fs.String("time", "", "start time HH:MM")
	lat := fs.Float64("lat", 0, "latitude")
	lng := fs.Float64("lng", 0, "longitude")
	genre := fs.Int64("genre", 0, "music genre id")
	instruments := fs.String("instruments", "", "instrument ids with quantities, e.g. 1x2,3")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	form := app.SessionForm{Date: *date, Time: *clock, GenreID: *genre}
	if flagSet(fs, "lat") || flagSet(fs, "lng") {
		form.Location = &domain.Location{Latitude: *lat, Longitude: *lng}
	}
	quantities, err := parseQuantities(*instruments)
	if err != nil {
		return err
	}
	form.Instruments = quantities
	if err := c.app.Sessions.Create(ctx, form); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "session created")
	return nil
}

func (c *cli) sessionsEdit(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageErr("sessions edit <id> [flags]")
	}
	id, err := parseID(args[0], "session id")
	if err != nil {
		return err
	}
	fs := c.flags("sessions edit")
	start := fs.String("start", "", "start time YYYY-MM-DDTHH:MM:SS")
	lat := fs.Float64("lat", 0, "latitude")
	lng := fs.Float64("lng", 0, "longitude")
	genre := fs.Int64("genre", 0, "music genre id")
	required := fs.String("required", "", "required instrument ids, comma separated, one per slot")
	confirmed := fs.String("confirmed", "", "confirmed rating ids, comma separated")
	if err := fs.Parse(args[1:]); err != nil {
		return usageErr("%v", err)
	}
	edit := domain.EditJamSession{StartTime: *start}
	if flagSet(fs, "lat") || flagSet(fs, "lng") {
		edit.Location = &domain.Location{Latitude: *lat, Longitude: *lng}
	}
	if *genre > 0 {
		edit.MusicGenreID = genre
	}
	if edit.RequiredInstrumentsIDs, err = parseIDList(*required); err != nil {
		return err
	}
	if edit.ConfirmedInstrumentsIDs, err = parseIDList(*confirmed); err != nil {
		return err
	}
	if err := c.app.Sessions.Edit(ctx, id, edit); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "session %d updated\n", id)
	return nil
}

func (c *cli) printSessions(sessions []domain.JamSession) {
	if len(sessions) == 0 {
		fmt.Fprintln(c.out, "no sessions")
		return
	}
	tw := c.table()
	fmt.Fprintln(tw, "ID\tSTART\tGENRE\tOWNER\tSLOTS")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", s.ID, startLabel(s), s.MusicGenre.Name, s.Owner.Name, slotSummary(s.Slots()))
	}
	_ = tw.Flush()
}

func startLabel(s domain.JamSession) string {
	t, err := s.Start()
	if err != nil {
		return s.StartTime
	}
	return t.Format("Mon 2 Jan 2006 15:04")
}

func slotSummary(slots []domain.Slot) string {
	if len(slots) == 0 {
		return "-"
	}
	parts := make([]string, len(slots))
	for i, s := range slots {
		parts[i] = fmt.Sprintf("%s %d/%d", s.Name, s.Confirmed, s.Total)
	}
	return strings.Join(parts, ", ")
}

// parseQuantities reads "1x2,3" as two slots of instrument 1 and one of 3.
func parseQuantities(s string) ([]app.InstrumentQuantity, error) {
	var out []app.InstrumentQuantity
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idText, qtyText, hasQty := strings.Cut(part, "x")
		id, err := parseID(idText, "instrument id")
		if err != nil {
			return nil, err
		}
		qty := 1
		if hasQty {
			if qty, err = strconv.Atoi(qtyText); err != nil {
				return nil, usageErr("invalid quantity %q", qtyText)
			}
		}
		out = append(out, app.InstrumentQuantity{InstrumentID: id, Quantity: qty})
	}
	if len(out) == 0 {
		return nil, errors.New("at least one instrument is required")
	}
	return out, nil
}
