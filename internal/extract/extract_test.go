package extract

import (
	"reflect"
	"testing"
)

const nativeMint = "So11111111111111111111111111111111111111112"

func TestMintsNestedDepths(t *testing.T) {
	payload := []byte(`{
		"meta": {
			"preTokenBalances": [
				{"mint": "TOKENA", "owner": "x"},
				{"mint": "TOKENB", "owner": "y"}
			],
			"innerInstructions": [
				{"instructions": [{"parsed": {"info": {"mint": "TOKENA"}}}]}
			]
		},
		"transaction": {
			"message": {
				"instructions": [{"parsed": {"info": {"mint": "TOKENC"}}}]
			}
		}
	}`)

	mints, err := Mints(payload, nativeMint)
	if err != nil {
		t.Fatalf("Mints: %v", err)
	}

	want := []string{"TOKENA", "TOKENB", "TOKENC"}
	if !reflect.DeepEqual(mints, want) {
		t.Fatalf("expected %v, got %v", want, mints)
	}
}

func TestMintsExcludesNativeSentinel(t *testing.T) {
	payload := []byte(`{
		"meta": {
			"postTokenBalances": [
				{"mint": "` + nativeMint + `"},
				{"mint": "TOKENA"}
			]
		},
		"mint": "` + nativeMint + `"
	}`)

	mints, err := Mints(payload, nativeMint)
	if err != nil {
		t.Fatalf("Mints: %v", err)
	}

	if !reflect.DeepEqual(mints, []string{"TOKENA"}) {
		t.Fatalf("sentinel should be excluded wherever it appears, got %v", mints)
	}
}

func TestMintsSiblingOfMatchStillSearched(t *testing.T) {
	// A matching key must not stop the search through sibling branches.
	payload := []byte(`{
		"mint": "TOKENA",
		"inner": {"mint": "TOKENB"},
		"list": [{"deep": [{"mint": "TOKENC"}]}]
	}`)

	mints, err := Mints(payload, nativeMint)
	if err != nil {
		t.Fatalf("Mints: %v", err)
	}

	want := []string{"TOKENA", "TOKENB", "TOKENC"}
	if !reflect.DeepEqual(mints, want) {
		t.Fatalf("expected %v, got %v", want, mints)
	}
}

func TestMintsNoOccurrences(t *testing.T) {
	payload := []byte(`{"meta": {"fee": 5000, "logMessages": ["a", "b"]}, "slot": 1}`)

	mints, err := Mints(payload, nativeMint)
	if err != nil {
		t.Fatalf("Mints: %v", err)
	}
	if len(mints) != 0 {
		t.Fatalf("expected empty set, got %v", mints)
	}
}

func TestMintsIgnoresNonStringValues(t *testing.T) {
	payload := []byte(`{"mint": 42, "inner": {"mint": "TOKENA"}}`)

	mints, err := Mints(payload, nativeMint)
	if err != nil {
		t.Fatalf("Mints: %v", err)
	}
	if !reflect.DeepEqual(mints, []string{"TOKENA"}) {
		t.Fatalf("expected only string mints, got %v", mints)
	}
}

func TestMintsInvalidPayload(t *testing.T) {
	if _, err := Mints([]byte(`{not json`), nativeMint); err == nil {
		t.Fatal("expected error for invalid payload")
	}
}
