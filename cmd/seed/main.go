// cmd/seed: plays a classroom scenario against a running tokend.
//
// The creator hands out allowance to a handful of students, who then pay
// each other. Rejected steps (e.g. a student without enough balance) are
// printed and skipped. Every run applies the scenario again, so repeated
// runs keep growing the balances and, through the mint step, the supply.
//
// Usage:
//
//	go run ./cmd/seed
//	TOKEND_URL=http://localhost:8080 SEED_CREATOR=admin go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jmerrifield20/edutoken/pkg/client"
)

const defaultURL = "http://localhost:8080"

type step struct {
	from   string
	to     string
	amount int64
	mint   bool
}

func scenario(creator string) []step {
	return []step{
		{from: creator, to: "alice", amount: 1200},
		{from: creator, to: "bob", amount: 800},
		{from: creator, to: "carol", amount: 500},
		{from: "alice", to: "bob", amount: 150},
		{from: "bob", to: "carol", amount: 75},
		{from: "carol", to: "alice", amount: 40},
		{from: creator, to: "dave", amount: 300, mint: true},
		{from: "dave", to: "alice", amount: 120},
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	baseURL := os.Getenv("TOKEND_URL")
	if baseURL == "" {
		baseURL = defaultURL
	}
	creator := os.Getenv("SEED_CREATOR")
	if creator == "" {
		creator = "admin"
	}

	ctx := context.Background()
	sessions := map[string]*client.Client{}

	for i, s := range scenario(creator) {
		c, ok := sessions[s.from]
		if !ok {
			var err error
			if c, err = client.New(baseURL); err != nil {
				return err
			}
			if _, err := c.Login(ctx, s.from); err != nil {
				return fmt.Errorf("login %s: %w", s.from, err)
			}
			sessions[s.from] = c
		}

		var out *client.Outcome
		var err error
		if s.mint {
			out, err = c.Mint(ctx, s.to, s.amount)
		} else {
			out, err = c.Transfer(ctx, s.to, s.amount)
		}
		if err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		mark := "ok  "
		if !out.Result.Success {
			mark = "skip"
		}
		fmt.Printf("  %s %-6s -> %-6s %6d  %s\n", mark, s.from, s.to, s.amount, out.Result.Message)
	}

	info, err := sessions[creator].Info(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("\nseed complete: %d %s across %d holders\n", info.TotalSupply, info.Symbol, info.TotalHolders)
	return nil
}
