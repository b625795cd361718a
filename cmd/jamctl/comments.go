package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"jamsession/pkg/api"
	"jamsession/pkg/domain"
)

func (c *cli) comments(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageErr("comments list|add|delete|react")
	}
	rest := args[1:]
	switch args[0] {
	case "list":
		ids, err := argIDs(rest, "session id")
		if err != nil {
			return err
		}
		list, err := c.app.Comments.Load(ctx, ids[0], true)
		if err != nil {
			return err
		}
		c.printComments(list)
		return nil
	case "add":
		return c.commentsAdd(ctx, rest)
	case "delete":
		ids, err := argIDs(rest, "session id", "comment id")
		if err != nil {
			return err
		}
		return c.app.Comments.Delete(ctx, ids[0], ids[1])
	case "react":
		if len(rest) != 3 {
			return usageErr("comments react <sessionId> <commentId> <reaction>")
		}
		ids, err := argIDs(rest[:2], "session id", "comment id")
		if err != nil {
			return err
		}
		return c.app.Comments.React(ctx, ids[0], ids[1], rest[2])
	default:
		return usageErr("unknown comments command %q", args[0])
	}
}

func (c *cli) commentsAdd(ctx context.Context, args []string) error {
	fs := c.flags("comments add")
	reply := fs.Int64("reply", 0, "id of the comment to reply to")
	imagePath := fs.String("image", "", "image file to attach")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	if fs.NArg() < 2 {
		return usageErr("comments add [-reply id] [-image file] <sessionId> <message>")
	}
	sessionID, err := parseID(fs.Arg(0), "session id")
	if err != nil {
		return err
	}
	message := strings.Join(fs.Args()[1:], " ")

	var parentID *int64
	if *reply > 0 {
		parentID = reply
		if _, err := c.app.Comments.Load(ctx, sessionID, false); err != nil {
			return err
		}
	}
	var upload *api.Upload
	if *imagePath != "" {
		f, err := os.Open(*imagePath)
		if err != nil {
			return err
		}
		defer f.Close()
		upload = &api.Upload{Filename: filepath.Base(*imagePath), Reader: f}
	}
	if _, err := c.app.Comments.Add(ctx, sessionID, message, upload, parentID); err != nil {
		return err
	}
	c.printComments(c.app.Comments.Comments(sessionID))
	return nil
}

func (c *cli) printComments(list []domain.Comment) {
	if len(list) == 0 {
		fmt.Fprintln(c.out, "no comments")
		return
	}
	for _, cm := range list {
		c.printComment(cm, "")
		for _, r := range cm.Replies {
			c.printComment(r, "    ")
		}
	}
}

func (c *cli) printComment(cm domain.Comment, indent string) {
	fmt.Fprintf(c.out, "%s#%d %s: %s\n", indent, cm.ID, authorName(cm.Author), cm.Message)
	if cm.ImageURL != "" {
		fmt.Fprintf(c.out, "%s   [image %s]\n", indent, cm.ImageURL)
	}
	if reactions := reactionLine(cm); reactions != "" {
		fmt.Fprintf(c.out, "%s   %s\n", indent, reactions)
	}
}

func authorName(a domain.CommentAuthor) string {
	if a.Name != "" {
		return a.Name
	}
	return "Unknown"
}

func reactionLine(cm domain.Comment) string {
	var parts []string
	for _, r := range domain.ReactionTypes {
		if n := cm.ReactionSummary[r]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", r.Emoji(), n))
		}
	}
	return strings.Join(parts, "  ")
}
