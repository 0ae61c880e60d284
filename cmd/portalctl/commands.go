package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/tendant/portal-content/pkg/listings"
	"github.com/tendant/portal-content/pkg/portal"
)

const commandTimeout = 30 * time.Second

// NewArticlesCommand creates the articles command group
func NewArticlesCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "articles",
		Short: "List and read articles",
	}
	cmd.AddCommand(newArticlesListCommand(flags))
	cmd.AddCommand(newArticlesGetCommand(flags))
	cmd.AddCommand(newArticlesFeaturedCommand(flags))
	return cmd
}

func newArticlesListCommand(flags *globalFlags) *cobra.Command {
	var params portal.QueryParams
	var status string
	var featured bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Status = portal.ArticleStatus(status)
			if cmd.Flags().Changed("featured") {
				params.Featured = portal.Bool(featured)
			}

			p, closeFn, err := flags.contentProvider(cmd)
			if err != nil {
				return fmt.Errorf("failed to create provider: %w", err)
			}
			defer closeFn()

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			page, err := p.ListArticles(ctx, params)
			if err != nil {
				return fmt.Errorf("list articles: %w", err)
			}
			if flags.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), page)
			}
			printArticles(cmd.OutOrStdout(), page.Items)
			fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d, %d total\n", page.Page, page.TotalPages, page.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&params.Category, "category", "", "category slug")
	cmd.Flags().StringVar(&status, "status", "", "draft, published or scheduled")
	cmd.Flags().BoolVar(&featured, "featured", false, "only featured (or --featured=false for non-featured)")
	cmd.Flags().StringVarP(&params.Search, "search", "s", "", "search title and summary")
	cmd.Flags().StringVar(&params.Author, "author", "", "author ID")
	cmd.Flags().IntVarP(&params.Limit, "limit", "l", portal.DefaultLimit, "page size")
	cmd.Flags().IntVar(&params.Offset, "offset", 0, "items to skip")
	return cmd
}

func newArticlesGetCommand(flags *globalFlags) *cobra.Command {
	var bySlug bool

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one article by ID, or by slug with --slug",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, closeFn, err := flags.contentProvider(cmd)
			if err != nil {
				return fmt.Errorf("failed to create provider: %w", err)
			}
			defer closeFn()

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			var article *portal.Article
			if bySlug {
				article, err = p.GetArticleBySlug(ctx, args[0])
			} else {
				article, err = p.GetArticle(ctx, args[0])
			}
			if err != nil {
				return fmt.Errorf("get article: %w", err)
			}
			if article == nil {
				return fmt.Errorf("article %q not found", args[0])
			}
			if flags.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), article)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:        %s\n", article.ID)
			fmt.Fprintf(out, "Title:     %s\n", article.Title)
			fmt.Fprintf(out, "Slug:      %s\n", article.Slug)
			fmt.Fprintf(out, "Category:  %s\n", article.Category)
			fmt.Fprintf(out, "Status:    %s\n", article.Status)
			fmt.Fprintf(out, "Published: %s\n", formatTime(article.PublishedAt))
			fmt.Fprintf(out, "Views:     %d\n", article.Views)
			if article.Summary != "" {
				fmt.Fprintf(out, "\n%s\n", article.Summary)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&bySlug, "slug", false, "treat the argument as a slug")
	return cmd
}

func newArticlesFeaturedCommand(flags *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "featured",
		Short: "List published featured articles, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, closeFn, err := flags.contentProvider(cmd)
			if err != nil {
				return fmt.Errorf("failed to create provider: %w", err)
			}
			defer closeFn()

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			articles, err := p.GetFeaturedArticles(ctx, limit)
			if err != nil {
				return fmt.Errorf("featured articles: %w", err)
			}
			if flags.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), articles)
			}
			printArticles(cmd.OutOrStdout(), articles)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 5, "number of articles")
	return cmd
}

// NewCalendarCommand creates the calendar command
func NewCalendarCommand(flags *globalFlags) *cobra.Command {
	now := time.Now().UTC()
	var year, month int

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show exams, results, holidays and events for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, closeFn, err := flags.listingsProvider(cmd)
			if err != nil {
				return fmt.Errorf("failed to create provider: %w", err)
			}
			defer closeFn()

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			events, err := p.GetCalendarEvents(ctx, year, time.Month(month))
			if err != nil {
				return fmt.Errorf("calendar: %w", err)
			}
			if flags.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), events)
			}
			printCalendar(cmd.OutOrStdout(), events)
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", now.Year(), "year")
	cmd.Flags().IntVar(&month, "month", int(now.Month()), "month, 1-12")
	return cmd
}

// NewPingCommand creates the ping command
func NewPingCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test the connection to the content and listings providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			content, closeContent, err := flags.contentProvider(cmd)
			if err != nil {
				return fmt.Errorf("failed to create content provider: %w", err)
			}
			defer closeContent()
			contentErr := ping(ctx, out, "content", content.Name(), content.TestConnection)

			l, closeListings, err := flags.listingsProvider(cmd)
			if err != nil {
				return fmt.Errorf("failed to create listings provider: %w", err)
			}
			defer closeListings()
			listingsErr := ping(ctx, out, "listings", l.Name(), l.TestConnection)

			if contentErr != nil {
				return contentErr
			}
			return listingsErr
		},
	}
}

func ping(ctx context.Context, out io.Writer, family, kind string, test func(context.Context) error) error {
	start := time.Now()
	err := test(ctx)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		hint := ""
		if portal.IsAuthError(err) {
			hint = " (check the API key)"
		}
		fmt.Fprintf(out, "%-9s %-10s FAIL %s%s\n", family, kind, err, hint)
		return fmt.Errorf("%s provider unreachable: %w", family, err)
	}
	fmt.Fprintf(out, "%-9s %-10s ok   %s\n", family, kind, elapsed)
	return nil
}

func printArticles(out io.Writer, articles []portal.Article) {
	if len(articles) == 0 {
		fmt.Fprintln(out, "No articles found.")
		return
	}
	fmt.Fprintf(out, "%-38s %-12s %-10s %-16s %s\n", "ID", "CATEGORY", "STATUS", "PUBLISHED", "TITLE")
	for _, a := range articles {
		fmt.Fprintf(out, "%-38s %-12s %-10s %-16s %s\n", a.ID, a.Category, a.Status, formatTime(a.PublishedAt), a.Title)
	}
}

func printCalendar(out io.Writer, events []listings.CalendarEvent) {
	if len(events) == 0 {
		fmt.Fprintln(out, "No events this month.")
		return
	}
	for _, e := range events {
		span := e.Start.Format("Jan 02")
		if !e.End.Equal(e.Start) {
			span += " - " + e.End.Format("Jan 02")
		}
		fmt.Fprintf(out, "%-16s %-8s %s  %s\n", span, e.Kind, e.Title.String(), e.Link)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
