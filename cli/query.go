package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/animedata/jikan"
)

func (a *App) newTopCmd() *cobra.Command {
	var airing bool

	cmd := &cobra.Command{
		Use:   "top",
		Short: "List top ranked anime",
		Long: `List the all-time top ranked anime, or the top currently airing ones.

Examples:
  animectl top
  animectl top --airing --page 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context, c *jikan.Client) (any, error) {
				if airing {
					return c.TopAiring(ctx, a.opts.page)
				}
				return c.TopAnime(ctx, a.opts.page)
			})
		},
	}

	cmd.Flags().BoolVar(&airing, "airing", false, "Only currently airing anime")
	return cmd
}

func (a *App) newUpcomingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upcoming",
		Short: "List anime of upcoming seasons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context, c *jikan.Client) (any, error) {
				return c.Upcoming(ctx, a.opts.page)
			})
		},
	}
}

func (a *App) newAnimeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "anime <id>",
		Short: "Show details, characters and staff of one anime",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.run(cmd.Context(), func(ctx context.Context, c *jikan.Client) (any, error) {
				return c.AnimeByID(ctx, id)
			})
		},
	}
}

func (a *App) newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search anime by title",
		Long: `Search anime by title. Adult titles are excluded.

Examples:
  animectl search "cowboy bebop"
  animectl search naruto --page 3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return a.run(cmd.Context(), func(ctx context.Context, c *jikan.Client) (any, error) {
				return c.Search(ctx, query, a.opts.page)
			})
		},
	}
}

func (a *App) newRecommendationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recommendations <id>",
		Short: "List anime recommended alongside one anime",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.run(cmd.Context(), func(ctx context.Context, c *jikan.Client) (any, error) {
				return c.Recommendations(ctx, id)
			})
		},
	}
}

func (a *App) newReviewsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reviews <id>",
		Short: "List user reviews of one anime",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.run(cmd.Context(), func(ctx context.Context, c *jikan.Client) (any, error) {
				return c.Reviews(ctx, id, a.opts.page)
			})
		},
	}
}

func (a *App) newSeasonalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seasonal <year> <season>",
		Short: "List the anime of one season",
		Long: fmt.Sprintf(`List the anime of one season. Season is one of %s.

Examples:
  animectl seasonal 2024 spring`, strings.Join(jikan.Seasons, ", ")),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid year %q: %w", args[0], err)
			}
			return a.run(cmd.Context(), func(ctx context.Context, c *jikan.Client) (any, error) {
				return c.Seasonal(ctx, year, args[1])
			})
		},
	}
}

func (a *App) newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule <day>",
		Short: "List the anime broadcast on one day",
		Long: fmt.Sprintf(`List the anime broadcast on one day. Day is one of %s.`,
			strings.Join(jikan.ScheduleDays, ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context, c *jikan.Client) (any, error) {
				return c.Schedule(ctx, args[0])
			})
		},
	}
}

func (a *App) newNewsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "news",
		Short: "List recent anime news",
		Long: `List recent anime news. The configured news endpoints are tried in order
and the first one that returns articles wins.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context, c *jikan.Client) (any, error) {
				return c.News(ctx, a.opts.page)
			})
		},
	}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return id, nil
}
