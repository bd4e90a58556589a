package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/invopop/jsonschema"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/polyscan/ctfindex/internal/common"
	"github.com/polyscan/ctfindex/internal/ctf"
	"github.com/polyscan/ctfindex/internal/db"
	"github.com/polyscan/ctfindex/internal/discovery"
	"github.com/polyscan/ctfindex/internal/gamma"
	"github.com/polyscan/ctfindex/internal/logger"
	"github.com/polyscan/ctfindex/internal/metrics"
	"github.com/polyscan/ctfindex/internal/migrations"
	"github.com/polyscan/ctfindex/internal/rpc"
	"github.com/polyscan/ctfindex/internal/store"
	tradesync "github.com/polyscan/ctfindex/internal/sync"
	"github.com/polyscan/ctfindex/internal/trades"
	"github.com/polyscan/ctfindex/pkg/api"
	"github.com/polyscan/ctfindex/pkg/config"
)

const version = "1.0.0"

var (
	configPath string

	// sync flags
	fromBlock uint64
	toBlock   uint64

	// discover flags
	concurrency int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ctfindex",
	Short: "ctfindex - Polymarket fill-event indexer",
	Long: `ctfindex indexes OrderFilled events from the Polymarket CTF exchanges
into canonical trades, reconciles market metadata against the Gamma API,
and serves the indexed data over a REST API.`,
	Version: version,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one trade synchronization pass over a block range",
	Long: `Scan the configured exchanges for OrderFilled events in fixed-size block
windows, normalize them into trades and persist them. Without --from/--to the
range resumes after the stored cursor and ends at the current chain head.`,
	RunE: runSync,
}

var discoverCmd = &cobra.Command{
	Use:   "discover <event-slug> [event-slug...]",
	Short: "Discover and reconcile markets for the given events",
	Long: `Fetch each event and its markets from the Gamma API, verify the reported
outcome token ids against locally derived ones, and persist the results.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDiscover,
}

var decodeCmd = &cobra.Command{
	Use:   "decode <tx-hash>",
	Short: "Decode the OrderFilled events in a transaction",
	Args:  cobra.ExactArgs(1),
	RunE:  runDecode,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read API over the indexed database",
	RunE:  runServe,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the configuration file",
	RunE:  runSchema,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")

	syncCmd.Flags().Uint64Var(&fromBlock, "from", 0, "first block to scan (default: cursor+1)")
	syncCmd.Flags().Uint64Var(&toBlock, "to", 0, "last block to scan (default: chain head)")

	discoverCmd.Flags().IntVar(&concurrency, "concurrency", 4, "number of events reconciled in parallel")

	rootCmd.AddCommand(syncCmd, discoverCmd, decodeCmd, serveCmd, schemaCmd)
}

// loadConfig loads .env (if present) and the configuration file.
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

func componentLogger(cfg *config.Config, component string) *logger.Logger {
	if cfg.Logging == nil {
		return logger.GetDefaultLogger().WithComponent(component)
	}

	return logger.NewComponentLoggerFromConfig(component, cfg.Logging)
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openStore runs migrations, opens the database and starts maintenance.
// The returned cleanup stops maintenance and closes the database.
func openStore(ctx context.Context, cfg *config.Config) (*store.Store, func(), error) {
	if err := migrations.RunMigrations(cfg.Database.Path); err != nil {
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	database, err := db.NewSQLiteDBFromConfig(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	maintenance := db.NewMaintenanceCoordinator(
		cfg.Database.Path,
		database,
		cfg.Database.Maintenance,
		componentLogger(cfg, common.ComponentMaintenance),
	)

	if err := maintenance.Start(ctx); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to start database maintenance: %w", err)
	}

	st := store.New(database, componentLogger(cfg, common.ComponentStore), maintenance)

	cleanup := func() {
		if err := maintenance.Stop(); err != nil {
			componentLogger(cfg, common.ComponentMaintenance).Warnf("Failed to stop maintenance: %v", err)
		}

		database.Close()
	}

	return st, cleanup, nil
}

// startMetrics starts the metrics server when enabled. The returned stop
// function is safe to call either way.
func startMetrics(ctx context.Context, cfg *config.Config) (func(), error) {
	if cfg.Metrics == nil || !cfg.Metrics.Enabled {
		return func() {}, nil
	}

	server := metrics.NewServer(cfg.Metrics, componentLogger(cfg, common.ComponentAPI))
	if err := server.Start(ctx); err != nil {
		return func() {}, fmt.Errorf("failed to start metrics server: %w", err)
	}

	return func() {
		if err := server.Stop(context.Background()); err != nil {
			componentLogger(cfg, common.ComponentAPI).Warnf("Failed to stop metrics server: %v", err)
		}
	}, nil
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	log := componentLogger(cfg, common.ComponentSyncer)

	stopMetrics, err := startMetrics(ctx, cfg)
	if err != nil {
		return err
	}
	defer stopMetrics()

	st, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	client, err := rpc.NewClient(ctx, cfg.Sync.RPCURL, cfg.Sync.Retry)
	if err != nil {
		return fmt.Errorf("failed to create RPC client: %w", err)
	}
	defer client.Close()

	registry := gamma.NewClient(cfg.Gamma, componentLogger(cfg, common.ComponentGamma))
	reconciler := discovery.New(registry, st, componentLogger(cfg, common.ComponentDiscovery))

	syncer := tradesync.New(client, st, reconciler, cfg.Sync, log)

	var from, to *uint64
	if cmd.Flags().Changed("from") {
		from = &fromBlock
	}

	if cmd.Flags().Changed("to") {
		to = &toBlock
	}

	report, err := syncer.Run(ctx, from, to)
	if err != nil {
		if errors.Is(err, tradesync.ErrNoRange) {
			return fmt.Errorf("could not determine block range: %w", err)
		}

		return fmt.Errorf("sync failed: %w", err)
	}

	log.Infof("Sync finished: blocks %d-%d, %d trades inserted, %d logs decoded, %d decode failures, %d unresolved tokens",
		report.FromBlock, report.ToBlock, report.TradesInserted,
		report.LogsDecoded, report.DecodeFailures, report.Unresolved)

	for _, windowErr := range report.WindowErrors {
		log.Warnf("Window %d-%d failed: %v", windowErr.FromBlock, windowErr.ToBlock, windowErr.Err)
	}

	if len(report.WindowErrors) > 0 {
		return fmt.Errorf("%d window(s) failed; rerun to retry the gaps", len(report.WindowErrors))
	}

	return nil
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	log := componentLogger(cfg, common.ComponentDiscovery)

	st, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	registry := gamma.NewClient(cfg.Gamma, componentLogger(cfg, common.ComponentGamma))
	reconciler := discovery.New(registry, st, log)

	reports, discoverErr := reconciler.DiscoverMany(ctx, args, concurrency)
	for _, report := range reports {
		log.Infof("Event %s: %d market(s) reconciled, %d failed",
			report.EventSlug, report.Succeeded, report.Failed)
	}

	if discoverErr != nil {
		return fmt.Errorf("discovery finished with errors: %w", discoverErr)
	}

	return nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	txHash := ethcommon.HexToHash(args[0])

	client, err := rpc.NewClient(ctx, cfg.Sync.RPCURL, cfg.Sync.Retry)
	if err != nil {
		return fmt.Errorf("failed to create RPC client: %w", err)
	}
	defer client.Close()

	receipt, err := client.TransactionReceipt(ctx, txHash)
	if err != nil {
		return fmt.Errorf("failed to fetch receipt for %s: %w", txHash.Hex(), err)
	}

	exchanges := make([]ethcommon.Address, 0, len(cfg.Sync.Exchanges))
	for _, addr := range cfg.Sync.Exchanges {
		exchanges = append(exchanges, ethcommon.HexToAddress(addr))
	}
	if len(exchanges) == 0 {
		exchanges = ctf.ExchangeAddresses()
	}

	fills := trades.FillsFromReceipt(receipt, exchanges)

	type fillView struct {
		LogIndex uint   `json:"log_index"`
		Maker    string `json:"maker"`
		Taker    string `json:"taker"`
		Side     string `json:"side"`
		TokenID  string `json:"token_id"`
		Price    string `json:"price"`
		Size     string `json:"size"`
		Fee      string `json:"fee"`
	}

	views := make([]fillView, 0, len(fills))

	for _, fill := range fills {
		views = append(views, fillView{
			LogIndex: fill.LogIndex,
			Maker:    fill.Maker.Hex(),
			Taker:    fill.Taker.Hex(),
			Side:     string(fill.Side),
			TokenID:  fill.TokenID,
			Price:    fill.Price,
			Size:     fill.Size,
			Fee:      fill.Fee.String(),
		})
	}

	if len(views) == 0 {
		fmt.Printf("no OrderFilled events in transaction %s\n", txHash.Hex())
		return nil
	}

	encoded, err := json.MarshalIndent(views, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(encoded))

	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	stopMetrics, err := startMetrics(ctx, cfg)
	if err != nil {
		return err
	}
	defer stopMetrics()

	st, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	apiCfg := cfg.API
	if apiCfg == nil {
		apiCfg = &config.APIConfig{Enabled: true}
		apiCfg.ApplyDefaults()
	}

	server := api.NewServer(apiCfg, st, cfg.Sync.CursorKey, componentLogger(cfg, common.ComponentAPI))

	return server.Start(ctx)
}

func runSchema(cmd *cobra.Command, args []string) error {
	schema := jsonschema.Reflect(&config.Config{})

	encoded, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(encoded))

	return nil
}
