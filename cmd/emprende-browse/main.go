// Command emprende-browse browses the marketplace from a terminal. Results
// arrive a page at a time; "more" continues the listing the way scrolling
// does on the site.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emprendecr/emprende/internal/core/domain"
	"github.com/emprendecr/emprende/internal/shell/client"
	shelllisting "github.com/emprendecr/emprende/internal/shell/listing"
	"github.com/spf13/cobra"
)

var (
	apiURL      string
	kind        string
	provincia   string
	canton      string
	category    string
	search      string
	sortBy      string
	pageSize    int
	timeout     time.Duration
	countryCode string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "emprende-browse",
	Short: "Browse Costa Rica Emprende businesses, products and services",
	Long: `emprende-browse lists marketplace results a page at a time.

Type "more" to load the next page. Changing a filter (provincia, canton,
category, search, sort, type) starts the listing over from the first page.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBrowse,
}

func init() {
	rootCmd.Flags().StringVar(&apiURL, "api", "http://localhost:8080", "Marketplace API base URL")
	rootCmd.Flags().StringVarP(&kind, "type", "t", "all", "Listing type: businesses, products, services or all")
	rootCmd.Flags().StringVar(&provincia, "provincia", "", "Provincia filter (comma separated)")
	rootCmd.Flags().StringVar(&canton, "canton", "", "Canton filter (comma separated)")
	rootCmd.Flags().StringVar(&category, "category", "", "Category id filter (comma separated)")
	rootCmd.Flags().StringVarP(&search, "search", "s", "", "Search text")
	rootCmd.Flags().StringVar(&sortBy, "sort", "", "Sort mode: random, popularity or newest")
	rootCmd.Flags().IntVar(&pageSize, "page-size", domain.DefaultPageSize, "Results per page")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.Flags().StringVar(&countryCode, "country-code", domain.DefaultCountryCode, "Country code for WhatsApp links")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	k, err := parseKind(kind)
	if err != nil {
		return err
	}
	filters, err := initialFilters()
	if err != nil {
		return err
	}
	if pageSize < 1 || pageSize > domain.MaxPageSize {
		return fmt.Errorf("--page-size must be between 1 and %d", domain.MaxPageSize)
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := client.NewClient(client.Config{BaseURL: apiURL, Timeout: timeout}, logger)
	b := newBrowser(api, cmd.OutOrStdout(), k, filters, countryCode, logger,
		shelllisting.WithPageSize(pageSize),
		shelllisting.WithLogger(logger),
	)
	return b.run(ctx, cmd.InOrStdin())
}

// initialFilters builds the filters named by the command line flags.
func initialFilters() (domain.Filters, error) {
	f := domain.Filters{}
	facets := []struct{ cmd, val string }{
		{"provincia", provincia},
		{"canton", canton},
		{"category", category},
		{"search", search},
		{"sort", sortBy},
	}
	for _, fc := range facets {
		var err error
		if f, err = applyFacet(f, fc.cmd, fc.val); err != nil {
			return f, err
		}
	}
	return f, nil
}
