package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/mr-tron/base58"

	"token-change-alerts/internal/storage"
)

// solanaPubkeyLen is the decoded length of a valid Solana address.
const solanaPubkeyLen = 32

// WalletEntry is one address/name pair submitted for registration.
type WalletEntry struct {
	Hash string
	Name string
}

// AddWallets registers wallets, skipping invalid addresses and duplicates.
func (a *App) AddWallets(ctx context.Context, entries []WalletEntry) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	var added, skipped int
	for _, entry := range entries {
		if err := validateAddress(entry.Hash); err != nil {
			fmt.Fprintf(os.Stdout, "skipping %s: %v\n", entry.Hash, err)
			skipped++
			continue
		}

		name := entry.Name
		if name == "" {
			name = entry.Hash
		}

		inserted, err := store.InsertWallet(ctx, storage.Wallet{Hash: entry.Hash, Name: name})
		if err != nil {
			return err
		}
		if !inserted {
			fmt.Fprintf(os.Stdout, "wallet %s already exists, skipping\n", entry.Hash)
			skipped++
			continue
		}

		fmt.Fprintf(os.Stdout, "added wallet %s (%s)\n", entry.Hash, name)
		added++
	}

	fmt.Fprintf(os.Stdout, "added: %d, skipped: %d\n", added, skipped)
	return nil
}

// RemoveWallet unregisters a wallet by address.
func (a *App) RemoveWallet(ctx context.Context, hash string) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	removed, err := store.DeleteWallet(ctx, hash)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Fprintln(os.Stdout, "wallet not found")
		return nil
	}

	fmt.Fprintf(os.Stdout, "removed wallet %s\n", hash)
	return nil
}

// ListWallets prints all registered wallets.
func (a *App) ListWallets(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	wallets, err := store.ListWallets(ctx)
	if err != nil {
		return err
	}
	if len(wallets) == 0 {
		fmt.Fprintln(os.Stdout, "no wallets registered")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Address\tName\tAdded (UTC)")
	for _, wallet := range wallets {
		fmt.Fprintf(writer, "%s\t%s\t%s\n", wallet.Hash, wallet.DisplayName(), wallet.CreatedAt.UTC().Format(time.RFC3339))
	}

	return writer.Flush()
}

func validateAddress(address string) error {
	decoded, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("not a base58 address: %w", err)
	}
	if len(decoded) != solanaPubkeyLen {
		return fmt.Errorf("decoded address is %d bytes, want %d", len(decoded), solanaPubkeyLen)
	}
	return nil
}
