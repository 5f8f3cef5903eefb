package watcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"token-change-alerts/internal/alerting"
	"token-change-alerts/internal/chain"
	"token-change-alerts/internal/extract"
	"token-change-alerts/internal/metadata"
	"token-change-alerts/internal/storage"
)

// ChainClient is the chain data surface the watcher depends on.
type ChainClient interface {
	LatestSignature(ctx context.Context, address string) (string, error)
	Transaction(ctx context.Context, signature string) (json.RawMessage, error)
}

// Options tune cycle behaviour.
type Options struct {
	Concurrency int
	NativeMint  string
}

// Service runs polling cycles: snapshot the registry, fan out over wallets
// under a bounded limit, and alert the first time a (wallet, token) pair is
// seen. Failures are contained at the wallet boundary.
type Service struct {
	registry storage.WalletRegistry
	ledger   storage.AlertLedger
	chain    ChainClient
	resolver metadata.Resolver
	notifier alerting.Notifier
	logger   zerolog.Logger
	opts     Options
}

// New constructs the watcher service.
func New(registry storage.WalletRegistry, ledger storage.AlertLedger, chainClient ChainClient, resolver metadata.Resolver, notifier alerting.Notifier, opts Options, logger zerolog.Logger) *Service {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 10
	}
	if opts.NativeMint == "" {
		opts.NativeMint = "So11111111111111111111111111111111111111112"
	}

	return &Service{
		registry: registry,
		ledger:   ledger,
		chain:    chainClient,
		resolver: resolver,
		notifier: notifier,
		logger:   logger.With().Str("component", "watcher").Logger(),
		opts:     opts,
	}
}

// RunCycle processes every registered wallet once. A failure to read the
// registry aborts only this cycle; per-wallet failures never propagate.
func (s *Service) RunCycle(ctx context.Context) error {
	start := time.Now()

	wallets, err := s.registry.ListWallets(ctx)
	if err != nil {
		wrapped := fmt.Errorf("list wallets: %w", err)
		s.notifier.NotifyException(ctx, wrapped)
		return wrapped
	}

	var alerted, failed atomic.Int64

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for _, wallet := range wallets {
		g.Go(func() error {
			// Contain everything at the wallet boundary so one bad
			// wallet never aborts the cycle or its siblings.
			sent, procErr := s.processWallet(gCtx, wallet)
			if procErr != nil {
				failed.Add(1)
				s.logger.Error().Err(procErr).Str("wallet", wallet.Hash).Msg("wallet processing failed")
				s.notifier.NotifyException(gCtx, procErr)
			}
			if sent {
				alerted.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info().
		Int("wallets", len(wallets)).
		Int64("alerted", alerted.Load()).
		Int64("failed", failed.Load()).
		Dur("elapsed", time.Since(start)).
		Msg("cycle complete")

	return nil
}

// processWallet walks one wallet through the pipeline. It reports whether a
// notification was sent and any failure worth a diagnostic.
func (s *Service) processWallet(ctx context.Context, wallet storage.Wallet) (bool, error) {
	log := s.logger.With().Str("wallet", wallet.Hash).Str("name", wallet.DisplayName()).Logger()

	signature, err := s.chain.LatestSignature(ctx, wallet.Hash)
	if err != nil {
		if errors.Is(err, chain.ErrNoSignatures) {
			log.Debug().Msg("no transaction history")
			return false, nil
		}
		// Absence of a signature is never fatal; skip this cycle only.
		log.Warn().Err(err).Msg("failed to fetch latest signature")
		return false, nil
	}

	payload, err := s.chain.Transaction(ctx, signature)
	if err != nil {
		return false, fmt.Errorf("fetch transaction %s: %w", signature, err)
	}

	mints, err := extract.Mints(payload, s.opts.NativeMint)
	if err != nil {
		return false, fmt.Errorf("extract tokens from %s: %w", signature, err)
	}
	log.Debug().Strs("tokens", mints).Str("signature", signature).Msg("tokens extracted")

	if len(mints) == 0 {
		return false, nil
	}

	lines := make([]string, 0, len(mints))
	for _, mint := range mints {
		seen, checkErr := s.ledger.AlreadyAlerted(ctx, wallet.Hash, mint)
		if checkErr != nil {
			return false, fmt.Errorf("check alerted %s: %w", mint, checkErr)
		}
		if seen {
			log.Debug().Str("token", mint).Msg("token already alerted")
			continue
		}

		meta := s.resolver.Resolve(ctx, mint)
		if !meta.Resolved() {
			// No ledger write on a resolution miss: the token stays
			// eligible next cycle.
			log.Warn().Str("token", mint).Msg("name or symbol not found")
			continue
		}

		inserted, recordErr := s.ledger.RecordAlert(ctx, wallet.Hash, mint)
		if recordErr != nil {
			return false, fmt.Errorf("record alert %s: %w", mint, recordErr)
		}
		if !inserted {
			// The unique index says another writer got here first.
			log.Debug().Str("token", mint).Msg("token alerted elsewhere, suppressing")
			continue
		}

		lines = append(lines, fmt.Sprintf("[%s](https://solscan.io/account/%s) `%s`\n", mint, mint, meta.Symbol))
	}

	if len(lines) == 0 {
		log.Debug().Msg("no new tokens to alert")
		return false, nil
	}

	message := fmt.Sprintf(
		"New transactions for wallet [%s](https://birdeye.so/profile/%s):\n-------------------------------------------\n%s",
		wallet.DisplayName(), wallet.Hash, strings.Join(lines, ""),
	)

	if notifyErr := s.notifier.Notify(ctx, message+fmt.Sprintf("Hash: %s", signature), alerting.ChannelPrimary); notifyErr != nil {
		log.Error().Err(notifyErr).Msg("failed to deliver alert")
	}
	if notifyErr := s.notifier.Notify(ctx, message, alerting.ChannelResults); notifyErr != nil {
		log.Error().Err(notifyErr).Msg("failed to deliver results alert")
	}

	return true, nil
}
