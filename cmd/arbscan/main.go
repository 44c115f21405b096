package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/arb-arena/arbscan/internal/config"
	"github.com/arb-arena/arbscan/internal/dedupe"
	"github.com/arb-arena/arbscan/internal/extract"
	"github.com/arb-arena/arbscan/internal/fetch"
	"github.com/arb-arena/arbscan/internal/logger"
	"github.com/arb-arena/arbscan/internal/models"
	"github.com/arb-arena/arbscan/internal/notify"
	"github.com/arb-arena/arbscan/internal/reconcile"
	"github.com/arb-arena/arbscan/internal/storage"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	store, err := storage.Open(
		cfg.Storage.Driver,
		cfg.Storage.DataDir,
		cfg.Storage.OpportunitiesFile,
		cfg.Storage.SeenKeysFile,
		cfg.Storage.PostgresDSN,
	)
	if err != nil {
		logger.Fatal("Failed to open storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	senders, err := buildSenders(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize notifiers: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, stopping scan...")
		cancel()
	}()

	runID := uuid.New().String()
	logger.Info("Starting scan run %s (threshold: %.2f%%, agencies: %v)",
		runID, cfg.Scan.ROIThreshold*100, cfg.Scan.AllowedAgencies)

	if err := runScan(ctx, cfg, store, senders); err != nil {
		logger.Fatal("Scan run %s failed: %v", runID, err)
	}
	logger.Info("Scan run %s finished", runID)
}

func buildSenders(cfg *config.Config) ([]notify.Sender, error) {
	var senders []notify.Sender
	if cfg.Notify.Telegram.Enabled {
		tg, err := notify.NewTelegramSender(
			cfg.Notify.Telegram.BotToken,
			cfg.Notify.Telegram.ChatID,
			cfg.Notify.Telegram.MaxRetries,
			cfg.Notify.Telegram.RetryDelayBase,
		)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		senders = append(senders, tg)
	}
	if cfg.Notify.Discord.Enabled {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.Discord.WebhookURL))
	}
	return senders, nil
}

// runScan executes one full scan: every competition is fully processed
// before the next begins, the snapshot replaces the previous one wholesale,
// and the seen-key set is written back exactly once. A run that cannot
// persist has not accomplished its purpose and fails; a run with zero
// qualifying opportunities is a normal success.
func runScan(ctx context.Context, cfg *config.Config, store storage.Store, senders []notify.Sender) error {
	startTime := time.Now()

	compIDs, err := cfg.CompetitionIDs()
	if err != nil {
		return fmt.Errorf("resolve competition IDs: %w", err)
	}

	fetcher := fetch.New(cfg.Source.MultibetURL, cfg.Source.NavTimeout, cfg.Source.Headless)
	extractor := extract.New(cfg.Source.BettingBaseURL)

	persisted, err := store.LoadSeenKeys()
	if err != nil {
		logger.Warn("Failed to load seen keys, starting empty: %v", err)
	}
	seen := dedupe.NewSeenKeys(persisted)

	var items []models.Opportunity
	for _, compID := range compIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.Info("Processing competition %d", compID)

		doc, err := fetcher.CompetitionPage(ctx, compID)
		if err != nil {
			logger.Warn("Competition %d unavailable: %v", compID, err)
			continue
		}

		pairs := extractor.Pairs(doc, compID)
		kept := 0
		for _, pair := range pairs {
			if pair.URL != "" {
				detail, err := fetcher.DetailPage(ctx, pair.URL)
				if err != nil {
					// Unverifiable, not wrong: the pair stays, unreconciled.
					logger.Warn("Detail page for %q unavailable: %v", pair.Match, err)
				} else if !reconcile.Apply(&pair, detail) {
					logger.Debug("Reconciliation rejected %q (%s)", pair.Match, pair.Market)
					continue
				}
			}
			items = append(items, pair)
			kept++
		}
		logger.Info("Competition %d: %d pairs extracted, %d kept after reconciliation",
			compID, len(pairs), kept)
	}

	set := &models.OpportunitySet{LastUpdated: time.Now().UTC(), Items: items}
	set.SortByROI()
	if err := store.SaveOpportunities(set); err != nil {
		return fmt.Errorf("persist opportunities: %w", err)
	}

	filter := dedupe.NewFilter(cfg.Scan.ROIThreshold, cfg.Scan.AllowedAgencies)
	hits := filter.Select(set, seen)

	// The grown key set is persisted in full before any notification is
	// attempted, so transport failures never cause renotification.
	if err := store.SaveSeenKeys(seen.Sorted()); err != nil {
		return fmt.Errorf("persist seen keys: %w", err)
	}

	logger.Info("Scan completed in %v: %d opportunities across %d competitions, %d new hits",
		time.Since(startTime), len(set.Items), len(compIDs), len(hits))

	if len(hits) == 0 || len(senders) == 0 {
		return nil
	}
	message := notify.FormatMessage(hits, cfg.Scan.ROIThreshold*100, notify.DisplayCap)
	if err := notify.Broadcast(ctx, senders, message); err != nil {
		logger.Warn("Notification delivery incomplete: %v", err)
	}
	return nil
}
