// Crypto Advisor: personalized crypto dashboard aggregation service.
//
// Main CLI entrypoint using the cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/itayco2/cryptoadvisor/api"
	"github.com/itayco2/cryptoadvisor/internal/cache"
	"github.com/itayco2/cryptoadvisor/internal/config"
	"github.com/itayco2/cryptoadvisor/internal/dashboard"
	"github.com/itayco2/cryptoadvisor/internal/feedback"
	"github.com/itayco2/cryptoadvisor/internal/providers"
	"github.com/itayco2/cryptoadvisor/internal/session"
	"github.com/itayco2/cryptoadvisor/pkg/models"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cryptoadvisor",
	Short: "Personalized crypto dashboard aggregation service",
	Long: `Crypto Advisor assembles a per-user dashboard from independent
content providers (prices, news, AI insight, daily meme), caching each
provider's result and serving stale data when an upstream is down.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(providersCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Crypto Advisor %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		agg := newAggregator(cfg)

		sessions := session.NewMemoryResolver()
		prefs := session.NewMemoryPreferences()
		fb := feedback.NewMemoryStore()

		// Development convenience: pre-grant a token so the API is
		// usable without an external identity service.
		if token, _ := cmd.Flags().GetString("dev-token"); token != "" {
			sessions.Grant(token, "dev-user")
		}

		srv := api.NewServer(cfg, agg, sessions, prefs, fb)
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		return srv.ListenAndServe(addr)
	},
}

func init() {
	serveCmd.Flags().String("dev-token", "", "pre-grant a bearer token mapped to a dev user")
}

// --- Dashboard Command ---

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Fetch a dashboard once and print it as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		assets, _ := cmd.Flags().GetStringSlice("assets")
		types, _ := cmd.Flags().GetStringSlice("content-types")
		investor, _ := cmd.Flags().GetString("investor-type")

		var prefs *models.Preferences
		if len(assets) > 0 || len(types) > 0 || investor != "" {
			prefs = &models.Preferences{
				InterestedAssets: assets,
				ContentTypes:     types,
				InvestorType:     investor,
			}
		}

		agg := newAggregator(cfg)
		resp, err := agg.Aggregate(context.Background(), "cli", prefs, feedback.Set{})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}

func init() {
	dashboardCmd.Flags().StringSlice("assets", nil, "interested assets by display name (e.g. Bitcoin,Ethereum)")
	dashboardCmd.Flags().StringSlice("content-types", nil, `enabled content types (e.g. "Market News",Charts,Fun)`)
	dashboardCmd.Flags().String("investor-type", "", "investor profile label (e.g. HODLer)")
}

// --- Providers Command ---

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the configured content providers",
	Run: func(cmd *cobra.Command, args []string) {
		reg := providers.BuildRegistry(cfg)
		for _, kind := range reg.Kinds() {
			f, err := reg.For(kind)
			if err != nil {
				continue
			}
			fmt.Printf("%-12s %-12s ttl=%s\n", kind, f.Name(), f.TTL())
		}
	},
}

// newAggregator wires the registry, cache, and aggregator from config.
func newAggregator(cfg *config.Config) *dashboard.Aggregator {
	reg := providers.BuildRegistry(cfg)
	c := cache.New(cfg.Cache.MaxEntries)
	return dashboard.New(reg, c, dashboard.WithNewsLimit(cfg.Providers.NewsLimit))
}
