package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"token-change-alerts/internal/app"
)

var walletsCmd = &cobra.Command{
	Use:   "wallets",
	Short: "Manage the monitored wallet registry",
}

var walletsAddCmd = &cobra.Command{
	Use:   "add <address name> [, <address name>]...",
	Short: "Register one or more wallets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := parseWalletArgs(strings.Join(args, " "))
		if err != nil {
			return err
		}
		return getApp().AddWallets(cmd.Context(), entries)
	},
}

var walletsRemoveCmd = &cobra.Command{
	Use:   "remove <address>",
	Short: "Unregister a wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().RemoveWallet(cmd.Context(), args[0])
	},
}

var walletsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered wallets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ListWallets(cmd.Context())
	},
}

// parseWalletArgs accepts "addr1 name1, addr2 name2" with comma or semicolon
// separators between entries. The name defaults to the address when omitted.
func parseWalletArgs(raw string) ([]app.WalletEntry, error) {
	raw = strings.NewReplacer(",", "\n", ";", "\n").Replace(raw)

	entries := make([]app.WalletEntry, 0)
	for _, chunk := range strings.Split(raw, "\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}

		address, name, _ := strings.Cut(chunk, " ")
		entries = append(entries, app.WalletEntry{
			Hash: address,
			Name: strings.TrimSpace(name),
		})
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("no wallet entries given; use the format: address name")
	}
	return entries, nil
}

func init() {
	walletsCmd.AddCommand(walletsAddCmd)
	walletsCmd.AddCommand(walletsRemoveCmd)
	walletsCmd.AddCommand(walletsListCmd)
}
