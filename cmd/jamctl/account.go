package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"jamsession/internal/app"
	"jamsession/pkg/api"
	"jamsession/pkg/domain"
)

func (c *cli) login(ctx context.Context, args []string) error {
	fs := c.flags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	if *email == "" {
		v, err := c.prompt("Email: ")
		if err != nil {
			return err
		}
		*email = v
	}
	if *password == "" {
		v, err := c.prompt("Password: ")
		if err != nil {
			return err
		}
		*password = v
	}
	if err := c.app.Auth.Login(ctx, *email, *password); err != nil {
		return err
	}
	id, _ := c.app.Auth.CurrentUserID()
	fmt.Fprintf(c.out, "logged in as user %d\n", id)
	return nil
}

func (c *cli) register(ctx context.Context, args []string) error {
	fs := c.flags("register")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	form := app.RegisterForm{Name: *name, Email: *email, Password: *password, ConfirmPassword: *password}
	if form.Password == "" {
		pw, err := c.prompt("Password: ")
		if err != nil {
			return err
		}
		confirm, err := c.prompt("Confirm password: ")
		if err != nil {
			return err
		}
		form.Password, form.ConfirmPassword = pw, confirm
	}
	if err := c.app.Auth.Register(ctx, form); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "account created, you can log in now")
	return nil
}

func (c *cli) whoami(ctx context.Context) error {
	if !c.app.Auth.IsLoggedIn() {
		fmt.Fprintln(c.out, "not logged in")
		return nil
	}
	user, err := c.app.Auth.CurrentUser(ctx, false)
	if err != nil {
		return err
	}
	c.printUser(user)
	if exp, ok := c.app.Auth.ExpiresAt(); ok {
		fmt.Fprintf(c.out, "admin:    %t\nexpires:  %s (in %s)\n", c.app.Auth.IsAdmin(), exp.Format(time.RFC3339), time.Until(exp).Round(time.Second))
	}
	return nil
}

func (c *cli) users(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageErr("users list|show|edit|picture")
	}
	switch args[0] {
	case "list":
		return c.usersList(ctx, args[1:])
	case "show":
		ids, err := argIDs(args[1:], "user id")
		if err != nil {
			return err
		}
		user, err := c.app.Users.Get(ctx, ids[0], false)
		if err != nil {
			return err
		}
		c.printUser(user)
		return nil
	case "edit":
		return c.usersEdit(ctx, args[1:])
	case "picture":
		return c.usersPicture(ctx, args[1:])
	default:
		return usageErr("unknown users command %q", args[0])
	}
}

func (c *cli) usersList(ctx context.Context, args []string) error {
	fs := c.flags("users list")
	genre := fs.String("genre", "", "only users who like this genre")
	instrument := fs.String("instrument", "", "only users who play this instrument")
	refresh := fs.Bool("refresh", false, "bypass the cache")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	users, err := c.app.Users.GetAll(ctx, *refresh)
	if err != nil {
		return err
	}
	var catalog []domain.Instrument
	if *instrument != "" {
		if catalog, err = c.app.Instruments.All(ctx, false); err != nil {
			return err
		}
	}
	users = domain.FilterUsers(users, catalog, *genre, *instrument)

	tw := c.table()
	fmt.Fprintln(tw, "ID\tNAME\tGENRES\tINSTRUMENTS")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Name, genreNames(u.MusicGenres), ratingSummary(u.InstrumentsAndRatings))
	}
	return tw.Flush()
}

func (c *cli) usersEdit(ctx context.Context, args []string) error {
	fs := c.flags("users edit")
	id := fs.Int64("id", 0, "user id (default: logged in user)")
	name := fs.String("name", "", "new name")
	email := fs.String("email", "", "new email")
	bio := fs.String("bio", "", "new bio")
	genres := fs.String("genres", "", "favourite genre ids, comma separated")
	password := fs.String("password", "", "new password")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	userID, err := c.userOrCurrent(*id)
	if err != nil {
		return err
	}
	current, err := c.app.Users.Get(ctx, userID, true)
	if err != nil {
		return err
	}
	form := app.UserForm{
		Name:            current.Name,
		Email:           current.Email,
		Bio:             current.Bio,
		Password:        *password,
		ConfirmPassword: *password,
	}
	for _, g := range current.MusicGenres {
		form.GenreIDs = append(form.GenreIDs, g.ID)
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			form.Name = *name
		case "email":
			form.Email = *email
		case "bio":
			form.Bio = *bio
		}
	})
	if *genres != "" {
		if form.GenreIDs, err = parseIDList(*genres); err != nil {
			return err
		}
	}
	if err := c.app.Users.Update(ctx, userID, form); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "profile updated")
	return nil
}

func (c *cli) usersPicture(ctx context.Context, args []string) error {
	fs := c.flags("users picture")
	id := fs.Int64("id", 0, "user id (default: logged in user)")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	if fs.NArg() != 1 {
		return usageErr("users picture <file>")
	}
	userID, err := c.userOrCurrent(*id)
	if err != nil {
		return err
	}
	path := fs.Arg(0)
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := c.app.Users.UpdateImage(ctx, userID, filepath.Base(path), f); err != nil {
		if errors.Is(err, app.ErrUnsupportedImage) {
			return errors.New(app.MsgWrongImageFormat)
		}
		fmt.Fprintln(c.errOut, app.MsgImageFailed)
		return err
	}
	fmt.Fprintln(c.out, app.MsgImageUpdated)
	return nil
}

func (c *cli) ratings(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageErr("ratings add|delete")
	}
	userID, err := c.currentUser()
	if err != nil {
		return err
	}
	switch args[0] {
	case "add":
		if len(args) < 2 {
			return usageErr("ratings add <instrumentId>=<rating>...")
		}
		var ratings []api.NewRating
		for _, pair := range args[1:] {
			idText, ratingText, ok := strings.Cut(pair, "=")
			if !ok {
				return usageErr("expected instrumentId=rating, got %q", pair)
			}
			instrumentID, err := parseID(idText, "instrument id")
			if err != nil {
				return err
			}
			rating, err := strconv.Atoi(ratingText)
			if err != nil || rating < 1 || rating > 5 {
				return usageErr("rating must be 1..5, got %q", ratingText)
			}
			ratings = append(ratings, api.NewRating{InstrumentID: instrumentID, Rating: rating})
		}
		if err := c.app.Ratings.Add(ctx, userID, ratings); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%d rating(s) saved\n", len(ratings))
		return nil
	case "delete":
		ids, err := argIDs(args[1:], "rating id")
		if err != nil {
			return err
		}
		return c.app.Ratings.Delete(ctx, ids[0], userID)
	default:
		return usageErr("unknown ratings command %q", args[0])
	}
}

func (c *cli) printUser(u domain.User) {
	fmt.Fprintf(c.out, "id:       %d\nname:     %s\nemail:    %s\n", u.ID, u.Name, u.Email)
	if u.Bio != "" {
		fmt.Fprintf(c.out, "bio:      %s\n", u.Bio)
	}
	fmt.Fprintf(c.out, "genres:   %s\n", genreNames(u.MusicGenres))
	if u.ProfilePictureID != nil {
		fmt.Fprintf(c.out, "picture:  %s\n", app.ProfilePicturePath(*u.ProfilePictureID))
	}
	if len(u.InstrumentsAndRatings) == 0 {
		return
	}
	tw := c.table()
	fmt.Fprintln(tw, "RATING ID\tINSTRUMENT\tRATING")
	for _, r := range u.InstrumentsAndRatings {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", r.ID, r.InstrumentName, strings.Repeat("★", r.Rating))
	}
	_ = tw.Flush()
}

func genreNames(genres []domain.MusicGenre) string {
	if len(genres) == 0 {
		return "-"
	}
	names := make([]string, len(genres))
	for i, g := range genres {
		names[i] = g.Name
	}
	return strings.Join(names, ", ")
}

func ratingSummary(ratings []domain.InstrumentRating) string {
	if len(ratings) == 0 {
		return "-"
	}
	parts := make([]string, len(ratings))
	for i, r := range ratings {
		parts[i] = fmt.Sprintf("%s (%d)", r.InstrumentName, r.Rating)
	}
	return strings.Join(parts, ", ")
}
