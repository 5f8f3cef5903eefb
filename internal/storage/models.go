package storage

import "time"

// Wallet is a monitored chain address with a display name.
type Wallet struct {
	Hash      string
	Name      string
	CreatedAt time.Time
}

// DisplayName returns the wallet name, falling back to the address.
func (w Wallet) DisplayName() string {
	if w.Name != "" {
		return w.Name
	}
	return w.Hash
}

// AlertRecord captures one emitted (wallet, token) alert for de-duplication.
type AlertRecord struct {
	ID           int64
	WalletHash   string
	TokenAddress string
	CreatedAt    time.Time
}
