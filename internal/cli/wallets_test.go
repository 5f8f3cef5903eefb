package cli

import (
	"reflect"
	"testing"

	"token-change-alerts/internal/app"
)

func TestParseWalletArgs(t *testing.T) {
	entries, err := parseWalletArgs("addr1 alice, addr2 bob the builder; addr3")
	if err != nil {
		t.Fatalf("parseWalletArgs: %v", err)
	}

	want := []app.WalletEntry{
		{Hash: "addr1", Name: "alice"},
		{Hash: "addr2", Name: "bob the builder"},
		{Hash: "addr3", Name: ""},
	}
	if !reflect.DeepEqual(entries, want) {
		t.Fatalf("expected %+v, got %+v", want, entries)
	}
}

func TestParseWalletArgsEmpty(t *testing.T) {
	if _, err := parseWalletArgs("  ,  ;  "); err == nil {
		t.Fatal("expected error for empty input")
	}
}
