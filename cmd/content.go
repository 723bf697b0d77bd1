package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Ameerusa86/online-learning-platform/internal/content"
	"github.com/Ameerusa86/online-learning-platform/internal/services"
	"github.com/Ameerusa86/online-learning-platform/internal/shared"
	"github.com/urfave/cli/v3"
)

// ContentSlug prints the slug for a title, suffixed until it is unique among --existing.
func (r *Runner) ContentSlug(ctx context.Context, cmd *cli.Command) error {
	text := cmd.StringArg("text")
	if text == "" {
		return fmt.Errorf("%w: text", shared.ErrMissingArgument)
	}
	return r.writePlain("%s\n", content.EnsureUnique(content.Slugify(text), cmd.StringSlice("existing")))
}

// ContentVideo prints the id and embed URL for a YouTube link.
func (r *Runner) ContentVideo(ctx context.Context, cmd *cli.Command) error {
	ref := content.ParseVideoRef(cmd.StringArg("url"))
	if !ref.Valid {
		return r.writePlain("No video available\n")
	}
	return r.writePlain("ID: %s\nEmbed: %s\nWatch: %s\n", ref.ID, ref.EmbedURL(), ref.WatchURL())
}

// ContentRender converts markdown from --file or stdin to HTML.
func (r *Runner) ContentRender(ctx context.Context, cmd *cli.Command) error {
	var (
		src []byte
		err error
	)
	if path := cmd.String("file"); path != "" {
		src, err = os.ReadFile(path)
	} else {
		in := cmd.Root().Reader
		if in == nil {
			in = os.Stdin
		}
		src, err = io.ReadAll(in)
	}
	if err != nil {
		return fmt.Errorf("failed to read markdown: %w", err)
	}
	return r.writePlain("%s\n", content.RenderMarkdown(string(src)))
}

// VideoInfo looks up oEmbed metadata for a YouTube link.
func (r *Runner) VideoInfo(ctx context.Context, cmd *cli.Command) error {
	url := cmd.StringArg("url")
	if url == "" {
		return fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}

	svc := services.NewOEmbedService(r.config.YouTube.OEmbedURL, r.httpClient)
	info, err := svc.Lookup(ctx, url)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(info, cmd.Bool("pretty"))
	}

	r.writePlainHeader(info.Title)
	r.writePlain("ID: %s\nAuthor: %s\n", info.ID, info.Author)
	if info.ThumbnailURL != "" {
		r.writePlain("Thumbnail: %s\n", info.ThumbnailURL)
	}
	r.writePlain("Embed: %s\n", info.EmbedURL)
	return nil
}
