package main

import (
	"context"

	"github.com/desertthunder/musij/internal/cache"
	"github.com/urfave/cli/v3"
)

// Cache prints the per-domain cache TTLs the server runs with.
func (r *Runner) Cache(ctx context.Context, cmd *cli.Command) error {
	ttls := map[string]string{
		"events":        cache.TTLEvents.String(),
		"song":          cache.TTLSong.String(),
		"artist":        cache.TTLArtist.String(),
		"track":         cache.TTLTrack.String(),
		"spotify_token": cache.TTLToken.String(),
	}

	return r.writeJSON(ttls, cmd.Bool("pretty"))
}
