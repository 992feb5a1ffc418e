// Large journal generator
//
// This tool generates a large YAML journal for performance testing and
// profiling of loading, validation and report replay.
//
// Usage:
//
//	go run main.go > large.yaml
//	go run main.go 200000 > large.yaml  # Specify the number of transactions
package main

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robinvdvleuten/bookkeeper/ledger"
)

const defaultTransactions = 100_000

var (
	debitAccounts = []string{
		"Checking", "Savings", "Brokerage", "Petty Cash",
		"Groceries", "Restaurants", "Rent", "Utilities",
		"Fuel", "Transit", "Clothing", "Electronics",
		"Medical", "Taxes", "Commissions",
	}

	creditAccounts = []string{
		"Salary", "Bonus", "Dividends", "Interest",
		"Credit Card", "Mortgage", "Opening Balances",
	}
)

func main() {
	count := defaultTransactions
	if len(os.Args) > 1 {
		if n, err := strconv.Atoi(os.Args[1]); err == nil {
			count = n
		}
	}

	journal := &ledger.Journal{}
	debits := addAccounts(journal, debitAccounts, ledger.AccountTypeDebit, 1)
	credits := addAccounts(journal, creditAccounts, ledger.AccountTypeCredit, int64(len(debits)+1))

	current := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for id := int64(1); id <= int64(count); id++ {
		var entries []ledger.Entry

		switch rand.Intn(10) {
		case 0, 1, 2, 3, 4, 5: // 60% - debit against credit
			value := randValue(1_000, 50_000)
			entries = []ledger.Entry{
				{AccountID: pick(debits), Value: value},
				{AccountID: pick(credits), Value: value},
			}

		case 6, 7: // 20% - transfer between debit accounts
			value := randValue(1_000, 200_000)
			entries = []ledger.Entry{
				{AccountID: pick(debits), Value: value},
				{AccountID: pick(debits), Value: -value},
			}

		default: // 20% - split over several debit accounts
			a, b, c := randValue(100, 10_000), randValue(100, 10_000), randValue(100, 10_000)
			entries = []ledger.Entry{
				{AccountID: pick(debits), Value: a},
				{AccountID: pick(debits), Value: b},
				{AccountID: pick(debits), Value: c},
				{AccountID: pick(credits), Value: a + b + c},
			}
		}

		journal.Transactions = append(journal.Transactions, ledger.NewTransaction(id, current, entries...))

		// Advance by up to a day
		current = current.Add(time.Duration(rand.Intn(24*60)) * time.Minute)
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(journal); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode journal: %v\n", err)
		os.Exit(1)
	}
	_ = enc.Close()

	fmt.Fprintf(os.Stderr, "\nGenerated %d accounts with %d transactions\n", len(journal.Accounts), len(journal.Transactions))
}

func addAccounts(journal *ledger.Journal, names []string, typ ledger.AccountType, firstID int64) []int64 {
	ids := make([]int64, len(names))
	for i, name := range names {
		id := firstID + int64(i)
		journal.Accounts = append(journal.Accounts, ledger.Account{ID: id, Name: name, Type: typ})
		ids[i] = id
	}
	return ids
}

func pick(ids []int64) int64 {
	return ids[rand.Intn(len(ids))]
}

func randValue(min, max int64) int64 {
	return min + rand.Int63n(max-min)
}
