package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/blinklabs-io/nft-indexer/internal/chain"
	"github.com/blinklabs-io/nft-indexer/internal/config"
	"github.com/blinklabs-io/nft-indexer/internal/ingest"
	"github.com/blinklabs-io/nft-indexer/internal/logging"
	"github.com/blinklabs-io/nft-indexer/internal/marketplace"
	"github.com/blinklabs-io/nft-indexer/internal/rewardcenter"
	"github.com/blinklabs-io/nft-indexer/internal/router"
	"github.com/blinklabs-io/nft-indexer/internal/store"
	"github.com/blinklabs-io/nft-indexer/internal/version"
)

const programName = "nft-indexer"

var cmdlineFlags struct {
	configFile string
	version    bool
}

func main() {
	flag.StringVar(&cmdlineFlags.configFile, "config", "", "path to config file to load")
	flag.BoolVar(&cmdlineFlags.version, "version", false, "show version")
	flag.Parse()

	if cmdlineFlags.version {
		fmt.Printf("%s %s\n", programName, version.GetVersionString())
		os.Exit(0)
	}

	cfg, err := config.Load(cmdlineFlags.configFile)
	if err != nil {
		fmt.Printf("Failed to load config: %s\n", err)
		os.Exit(1)
	}

	logging.Configure()
	logger := logging.GetLogger()
	defer func() {
		if err := logger.Sync(); err != nil {
			return
		}
	}()

	if cfg.Debug.ListenPort > 0 {
		logger.Infof("starting debug listener on %s:%d", cfg.Debug.ListenAddress, cfg.Debug.ListenPort)
		go func() {
			addr := fmt.Sprintf("%s:%d", cfg.Debug.ListenAddress, cfg.Debug.ListenPort)
			if err := http.ListenAndServe(addr, nil); err != nil {
				logger.Fatalf("failed to start debug listener: %s", err)
			}
		}()
	}

	ctx := context.Background()
	if err := store.GetStore().Load(ctx); err != nil {
		logger.Fatalw("failed to connect to store", "error", err)
	}
	defer store.GetStore().Close()

	r := router.New()
	marketplace.RegisterHandlers(r, &marketplace.Handlers{
		Store:               store.GetStore(),
		MarketplaceProgram:  chain.ProgramMEHaus,
	}, cfg.Programs.MEHaus)
	rewardcenter.RegisterHandlers(r, &rewardcenter.Handlers{
		Store: store.GetStore(),
	}, cfg.Programs.RewardCenter)

	pool := ingest.New(r, cfg.Ingest.Workers)

	runCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Infow("starting ingestion", "workers", cfg.Ingest.Workers)
	if err := pool.Run(runCtx, &unconfiguredFeedSource{}); err != nil {
		logger.Fatalw("ingestion stopped with an error", "error", err)
	}
	logger.Infow("ingestion stopped")
}

// unconfiguredFeedSource is a placeholder FeedSource: the blockchain
// subscription transport is an external collaborator and is wired in
// by whatever deployment plugs a concrete feed client into
// ingest.Pool.Run in its place.
type unconfiguredFeedSource struct{}

func (unconfiguredFeedSource) Run(ctx context.Context, instructions chan<- chain.InstructionMessage, accounts chan<- chain.AccountMessage) error {
	defer close(instructions)
	defer close(accounts)
	<-ctx.Done()
	return ctx.Err()
}
