// Package boltstore implements ledger.Store on a bbolt database file.
//
// Records are stored as JSON. Separate order buckets keyed by the bucket
// sequence keep insertion order, since bbolt iterates keys in byte order.
package boltstore

import (
	"context"
	"encoding/binary"
	"encoding/json"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/robinvdvleuten/bookkeeper/ledger"
)

// Bucket names.
const (
	BucketAccounts          = "accounts"
	BucketAccountNames      = "account_names"
	BucketAccountOrder      = "account_order"
	BucketTransactions      = "transactions"
	BucketTransactionsOrder = "transaction_order"
)

var buckets = []string{
	BucketAccounts,
	BucketAccountNames,
	BucketAccountOrder,
	BucketTransactions,
	BucketTransactionsOrder,
}

// Store is a ledger.Store backed by bbolt. bbolt serialises writers, so
// the uniqueness checks and the write of one call happen atomically.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database at path and initialises its buckets.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database %s", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return errors.Wrapf(err, "failed to create bucket %s", bucket)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

func (s *Store) AddAccount(ctx context.Context, account ledger.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		accounts := tx.Bucket([]byte(BucketAccounts))
		names := tx.Bucket([]byte(BucketAccountNames))

		key := itob(account.ID)
		if accounts.Get(key) != nil {
			return ledger.NewDuplicateAccountIDError(account.ID)
		}
		if names.Get([]byte(account.Name)) != nil {
			return &ledger.DuplicateNameError{Name: account.Name}
		}

		data, err := json.Marshal(account)
		if err != nil {
			return errors.Wrapf(err, "failed to marshal account %d", account.ID)
		}
		if err := accounts.Put(key, data); err != nil {
			return errors.Wrapf(err, "failed to store account %d", account.ID)
		}
		if err := names.Put([]byte(account.Name), key); err != nil {
			return errors.Wrapf(err, "failed to index account name %s", account.Name)
		}
		return appendOrder(tx.Bucket([]byte(BucketAccountOrder)), key)
	})
}

func (s *Store) GetAccount(ctx context.Context, id int64) (*ledger.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var account *ledger.Account
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		account, err = getAccount(tx, itob(id))
		return err
	})
	return account, err
}

func (s *Store) GetAccountByName(ctx context.Context, name string) (*ledger.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var account *ledger.Account
	err := s.db.View(func(tx *bolt.Tx) error {
		key := tx.Bucket([]byte(BucketAccountNames)).Get([]byte(name))
		if key == nil {
			return nil
		}
		var err error
		account, err = getAccount(tx, key)
		return err
	})
	return account, err
}

func (s *Store) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	accounts := []ledger.Account{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BucketAccountOrder)).ForEach(func(_, key []byte) error {
			account, err := getAccount(tx, key)
			if err != nil {
				return err
			}
			if account == nil {
				return errors.Errorf("account order references missing account %d", btoi(key))
			}
			accounts = append(accounts, *account)
			return nil
		})
	})
	return accounts, err
}

func (s *Store) AddTransaction(ctx context.Context, txn ledger.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		transactions := tx.Bucket([]byte(BucketTransactions))

		key := itob(txn.ID)
		if transactions.Get(key) != nil {
			return ledger.NewDuplicateTransactionIDError(txn.ID)
		}

		data, err := json.Marshal(txn)
		if err != nil {
			return errors.Wrapf(err, "failed to marshal transaction %d", txn.ID)
		}
		if err := transactions.Put(key, data); err != nil {
			return errors.Wrapf(err, "failed to store transaction %d", txn.ID)
		}
		return appendOrder(tx.Bucket([]byte(BucketTransactionsOrder)), key)
	})
}

func (s *Store) GetTransaction(ctx context.Context, id int64) (*ledger.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var txn *ledger.Transaction
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		txn, err = getTransaction(tx, itob(id))
		return err
	})
	return txn, err
}

func (s *Store) ListTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	txns := []ledger.Transaction{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BucketTransactionsOrder)).ForEach(func(_, key []byte) error {
			txn, err := getTransaction(tx, key)
			if err != nil {
				return err
			}
			if txn == nil {
				return errors.Errorf("transaction order references missing transaction %d", btoi(key))
			}
			txns = append(txns, *txn)
			return nil
		})
	})
	return txns, err
}

func getAccount(tx *bolt.Tx, key []byte) (*ledger.Account, error) {
	data := tx.Bucket([]byte(BucketAccounts)).Get(key)
	if data == nil {
		return nil, nil
	}

	var account ledger.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, errors.Wrapf(err, "failed to decode account %d", btoi(key))
	}
	return &account, nil
}

func getTransaction(tx *bolt.Tx, key []byte) (*ledger.Transaction, error) {
	data := tx.Bucket([]byte(BucketTransactions)).Get(key)
	if data == nil {
		return nil, nil
	}

	var txn ledger.Transaction
	if err := json.Unmarshal(data, &txn); err != nil {
		return nil, errors.Wrapf(err, "failed to decode transaction %d", btoi(key))
	}
	return &txn, nil
}

// appendOrder records key under the bucket's next sequence number.
func appendOrder(b *bolt.Bucket, key []byte) error {
	seq, err := b.NextSequence()
	if err != nil {
		return errors.Wrap(err, "failed to allocate sequence")
	}
	return b.Put(itob(int64(seq)), key)
}

// itob encodes an id as an 8-byte big-endian key.
func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func btoi(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}

// Compile-time check
var _ ledger.Store = (*Store)(nil)
