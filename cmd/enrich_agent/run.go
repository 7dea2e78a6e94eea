package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/profile-enricher/internal/config"
	"github.com/jonathan/profile-enricher/internal/fetch"
	"github.com/jonathan/profile-enricher/internal/llm"
	"github.com/jonathan/profile-enricher/internal/observability"
	"github.com/jonathan/profile-enricher/internal/resolve"
	"github.com/jonathan/profile-enricher/internal/schemas"
	"github.com/jonathan/profile-enricher/internal/search"
	"github.com/jonathan/profile-enricher/internal/store"
	"github.com/jonathan/profile-enricher/internal/synth"
	"github.com/jonathan/profile-enricher/internal/topics"
	"github.com/jonathan/profile-enricher/internal/types"
	"github.com/jonathan/profile-enricher/internal/verify"
	"github.com/jonathan/profile-enricher/internal/wiki"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full enrichment pipeline over a profiles file",
	Long: `Resolves each profile to verified public identities: synthesize a search query, search the web, verify every candidate, and store confident matches. Topic labels are canonicalized along the way.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runEnrichCmd,
}

var (
	runConfigPath     string
	runProfiles       string
	runAliasTable     string
	runOutput         string
	runProvider       string
	runAPIKey         string
	runBraveKey       string
	runGoogleKey      string
	runGoogleCX       string
	runDatabaseURL    string
	runBatchSize      int
	runMaxCandidates  int
	runWorkers        int
	runRetryAttempts  int
	runTimeoutSeconds int
	runStrictAliases  bool
	runForce          bool
	runUseBrowser     bool
	runVerbose        bool
)

func init() {
	// Config file flag (processed first)
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().StringVarP(&runProfiles, "profiles", "p", "", "Path to profiles JSON file")
	runCommand.Flags().StringVarP(&runAliasTable, "alias-table", "a", "", "Path to topic alias table JSON file (optional)")
	runCommand.Flags().StringVarP(&runOutput, "output", "o", "", "Path to the results JSON file")
	runCommand.Flags().StringVar(&runProvider, "search-provider", "", "Search provider: brave or google")
	runCommand.Flags().IntVar(&runBatchSize, "batch-size", 0, "Profiles per checkpoint batch")
	runCommand.Flags().IntVar(&runMaxCandidates, "max-candidates", 0, "Search results per query")
	runCommand.Flags().IntVar(&runWorkers, "workers", 0, "Parallel profiles per batch")
	runCommand.Flags().IntVar(&runRetryAttempts, "retry-attempts", 0, "Attempts per external call")
	runCommand.Flags().IntVar(&runTimeoutSeconds, "timeout", 0, "Per-call timeout in seconds")
	runCommand.Flags().BoolVar(&runStrictAliases, "strict-aliases", false, "Abort on alias table conflicts instead of keeping the first-seen mapping")
	runCommand.Flags().BoolVar(&runForce, "force", false, "Reprocess handles already present in the results store")
	runCommand.Flags().BoolVar(&runUseBrowser, "use-browser", false, "Use headless browser for thin Wikipedia pages (requires Chrome)")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed debug information")

	// API keys can be passed as flags, or read from env vars
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API key (optional, defaults to GEMINI_API_KEY env var)")
	runCommand.Flags().StringVar(&runBraveKey, "brave-api-key", "", "Brave Search API key (optional, defaults to BRAVE_SEARCH_API_KEY env var)")
	runCommand.Flags().StringVar(&runGoogleKey, "google-api-key", "", "Google Custom Search API key (optional, defaults to GOOGLE_SEARCH_API_KEY env var)")
	runCommand.Flags().StringVar(&runGoogleCX, "google-cx", "", "Google Custom Search engine ID (optional, defaults to GOOGLE_SEARCH_CX env var)")

	// Database URL for the Postgres-backed store
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var; empty uses the JSON file store)")

	rootCmd.AddCommand(runCommand)
}

func runEnrichCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := assembleConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Profiles == "" {
		return fmt.Errorf("--profiles must be provided (via flag or config)")
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // stdout sync errors are not actionable

	profiles, err := loadProfiles(cfg.Profiles)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d profiles from %s\n", len(profiles), cfg.Profiles)

	// Topic canonicalizer is optional; without an alias table the run
	// only resolves identities.
	var canon *topics.Canonicalizer
	if cfg.AliasTable != "" {
		canon, err = buildCanonicalizer(cfg, logger)
		if err != nil {
			return err
		}
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer client.Close() //nolint:errcheck // closing on exit

	provider, err := buildProvider(ctx, cfg, logger)
	if err != nil {
		return err
	}

	resultStore, closeStore, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	fetchOpts := fetch.DefaultOptions()
	fetchOpts.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	wikiOpts := []wiki.Option{wiki.WithFetchOptions(fetchOpts)}
	if cfg.UseBrowser {
		wikiOpts = append(wikiOpts, wiki.WithBrowserFallback())
	}

	orchestrator := resolve.New(resolve.Deps{
		Synth:  synth.New(client, logger),
		Search: provider,
		Verify: verify.New(client, logger),
		Wiki:   wiki.NewExtractor(client, logger, wikiOpts...),
		Store:  resultStore,
		Canon:  canon,
		Logger: logger,
	}, resolve.Options{
		BatchSize:   cfg.BatchSize,
		Workers:     cfg.Workers,
		Attempts:    uint(cfg.RetryAttempts),
		CallTimeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		Force:       cfg.Force,
	})

	fmt.Println("Starting resolution run...")
	report, err := orchestrator.Run(ctx, profiles)
	if err != nil {
		return fmt.Errorf("resolution run failed: %w", err)
	}

	observability.NewPrinter(os.Stdout).PrintRunReport(report)
	fmt.Printf("Results written to %s\n", cfg.Output)
	return nil
}

// assembleConfig merges config file values, CLI overrides, defaults, and
// environment fallbacks, then validates the result.
func assembleConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if runConfigPath != "" {
		loaded, err := config.LoadConfig(runConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
		if runVerbose {
			fmt.Printf("Loaded config from: %s\n", runConfigPath)
		}
	}

	// Command-line args take priority; only override when the flag was
	// explicitly set.
	if cmd.Flags().Changed("profiles") {
		cfg.Profiles = runProfiles
	}
	if cmd.Flags().Changed("alias-table") {
		cfg.AliasTable = runAliasTable
	}
	if cmd.Flags().Changed("output") {
		cfg.Output = runOutput
	}
	if cmd.Flags().Changed("search-provider") {
		cfg.SearchProvider = runProvider
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if cmd.Flags().Changed("brave-api-key") {
		cfg.BraveAPIKey = runBraveKey
	}
	if cmd.Flags().Changed("google-api-key") {
		cfg.GoogleAPIKey = runGoogleKey
	}
	if cmd.Flags().Changed("google-cx") {
		cfg.GoogleCX = runGoogleCX
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}
	if cmd.Flags().Changed("batch-size") {
		cfg.BatchSize = runBatchSize
	}
	if cmd.Flags().Changed("max-candidates") {
		cfg.MaxCandidates = runMaxCandidates
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = runWorkers
	}
	if cmd.Flags().Changed("retry-attempts") {
		cfg.RetryAttempts = runRetryAttempts
	}
	if cmd.Flags().Changed("timeout") {
		cfg.TimeoutSeconds = runTimeoutSeconds
	}
	if cmd.Flags().Changed("strict-aliases") {
		cfg.StrictAliases = runStrictAliases
	}
	if cmd.Flags().Changed("force") {
		cfg.Force = runForce
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = runUseBrowser
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// loadProfiles validates the profiles file against its schema, then
// decodes it.
func loadProfiles(path string) ([]types.Profile, error) {
	if err := schemas.ValidateProfilesFile(path); err != nil {
		return nil, fmt.Errorf("profiles file is invalid: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles file: %w", err)
	}
	var profiles []types.Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("failed to parse profiles file: %w", err)
	}
	return profiles, nil
}

func buildCanonicalizer(cfg config.Config, logger *zap.Logger) (*topics.Canonicalizer, error) {
	if err := schemas.ValidateAliasTableFile(cfg.AliasTable); err != nil {
		return nil, fmt.Errorf("alias table is invalid: %w", err)
	}
	entries, err := topics.LoadEntries(cfg.AliasTable, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load alias table: %w", err)
	}
	policy := topics.ConflictLenient
	if cfg.StrictAliases {
		policy = topics.ConflictStrict
	}
	index, err := topics.BuildIndex(entries, policy, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build alias index: %w", err)
	}
	return topics.NewCanonicalizer(index), nil
}

func buildProvider(ctx context.Context, cfg config.Config, logger *zap.Logger) (search.Provider, error) {
	switch cfg.SearchProvider {
	case "google":
		provider, err := search.NewGoogleClient(ctx, cfg.GoogleAPIKey, cfg.GoogleCX, cfg.MaxCandidates)
		if err != nil {
			return nil, fmt.Errorf("failed to create google search client: %w", err)
		}
		return provider, nil
	default:
		provider, err := search.NewBraveClient(cfg.BraveAPIKey,
			search.WithBraveMaxResults(cfg.MaxCandidates),
			search.WithBraveLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create brave search client: %w", err)
		}
		return provider, nil
	}
}

func buildStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.Store, func(), error) {
	if cfg.DatabaseURL != "" {
		pg, err := store.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return pg, pg.Close, nil
	}
	fs := store.NewFileStore(cfg.Output, logger)
	return fs, func() {}, nil
}
