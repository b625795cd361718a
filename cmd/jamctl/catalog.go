package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"

	"jamsession/internal/app"
)

func (c *cli) instruments(ctx context.Context, args []string) error {
	fs := c.flags("instruments")
	refresh := fs.Bool("refresh", false, "bypass the cache")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	items, err := c.app.Instruments.All(ctx, *refresh)
	if err != nil {
		return err
	}
	tw := c.table()
	fmt.Fprintln(tw, "ID\tINSTRUMENT")
	for _, i := range items {
		fmt.Fprintf(tw, "%d\t%s\n", i.ID, i.Name)
	}
	return tw.Flush()
}

func (c *cli) genres(ctx context.Context, args []string) error {
	fs := c.flags("genres")
	refresh := fs.Bool("refresh", false, "bypass the cache")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	items, err := c.app.Genres.All(ctx, *refresh)
	if err != nil {
		return err
	}
	tw := c.table()
	fmt.Fprintln(tw, "ID\tGENRE")
	for _, g := range items {
		fmt.Fprintf(tw, "%d\t%s\n", g.ID, g.Name)
	}
	return tw.Flush()
}

func (c *cli) admin(ctx context.Context, args []string) error {
	if !c.app.Auth.IsAdmin() {
		return app.ErrNotAllowed
	}
	if len(args) == 0 {
		return c.adminPanel(ctx)
	}
	if len(args) < 3 || (args[1] != "add" && args[1] != "remove") {
		return usageErr("admin genres|instruments add <name> | remove <id>")
	}
	kind, action := args[0], args[1]
	value := strings.Join(args[2:], " ")
	var err error
	switch {
	case kind == "genres" && action == "add":
		err = c.app.Admin.AddGenre(ctx, value)
	case kind == "instruments" && action == "add":
		err = c.app.Admin.AddInstrument(ctx, value)
	case kind == "genres" || kind == "instruments":
		id, perr := parseID(value, "id")
		if perr != nil {
			return perr
		}
		if kind == "genres" {
			err = c.app.Admin.RemoveGenre(ctx, id)
		} else {
			err = c.app.Admin.RemoveInstrument(ctx, id)
		}
	default:
		return usageErr("unknown admin list %q", kind)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, c.app.Admin.LastResult().Message)
	return nil
}

func (c *cli) adminPanel(ctx context.Context) error {
	if err := c.app.Admin.Load(ctx); err != nil {
		return err
	}
	tw := c.table()
	fmt.Fprintln(tw, "GENRE ID\tGENRE")
	for _, g := range c.app.Admin.GenreList() {
		fmt.Fprintf(tw, "%d\t%s\n", g.ID, g.Name)
	}
	fmt.Fprintln(tw, "\nINSTRUMENT ID\tINSTRUMENT")
	for _, i := range c.app.Admin.InstrumentList() {
		fmt.Fprintf(tw, "%d\t%s\n", i.ID, i.Name)
	}
	return tw.Flush()
}

func (c *cli) image(ctx context.Context, args []string) error {
	fs := c.flags("image")
	output := fs.String("o", "", "write the decoded image to this file")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	if fs.NArg() != 1 {
		return usageErr("image [-o file] <path>")
	}
	url, err := c.app.Images.DataURL(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if *output == "" {
		fmt.Fprintln(c.out, url)
		return nil
	}
	_, encoded, ok := strings.Cut(url, ";base64,")
	if !ok {
		return fmt.Errorf("unexpected data url")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*output, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "wrote %d bytes to %s\n", len(data), *output)
	return nil
}

func (c *cli) geocode(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usageErr("geocode <lat> <lng>")
	}
	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return usageErr("invalid latitude %q", args[0])
	}
	lng, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return usageErr("invalid longitude %q", args[1])
	}
	addr, err := c.geocoder.Reverse(ctx, lat, lng)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, addr.String())
	return nil
}
