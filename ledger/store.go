package ledger

import (
	"context"
	"sync"
)

// AccountLookup resolves accounts by id. It is the only view of the store
// the validator gets. Implementations return nil, nil for unknown ids.
type AccountLookup interface {
	GetAccount(ctx context.Context, id int64) (*Account, error)
}

// AccountStore holds accounts keyed by unique id and unique name.
type AccountStore interface {
	AccountLookup

	// AddAccount stores a new account. It returns *DuplicateIDError or
	// *DuplicateNameError when either key is taken.
	AddAccount(ctx context.Context, account Account) error

	// GetAccountByName returns nil, nil when no account has that name.
	GetAccountByName(ctx context.Context, name string) (*Account, error)

	// ListAccounts returns all accounts in insertion order.
	ListAccounts(ctx context.Context) ([]Account, error)
}

// TransactionStore holds accepted transactions keyed by unique id.
type TransactionStore interface {
	// AddTransaction stores a transaction without re-validating it. It
	// returns *DuplicateIDError when the id is taken.
	AddTransaction(ctx context.Context, txn Transaction) error

	// GetTransaction returns nil, nil when the id is unknown.
	GetTransaction(ctx context.Context, id int64) (*Transaction, error)

	// ListTransactions returns all transactions in insertion order.
	ListTransactions(ctx context.Context) ([]Transaction, error)
}

// Store is the storage backend the ledger is built on.
type Store interface {
	AccountStore
	TransactionStore
}

// MemoryStore is an in-memory Store. It is safe for concurrent use.
type MemoryStore struct {
	mu             sync.RWMutex
	accounts       []Account
	accountsByID   map[int64]int
	accountsByName map[string]int
	transactions   []Transaction
	txnsByID       map[int64]int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accountsByID:   make(map[int64]int),
		accountsByName: make(map[string]int),
		txnsByID:       make(map[int64]int),
	}
}

func (m *MemoryStore) AddAccount(ctx context.Context, account Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accountsByID[account.ID]; ok {
		return NewDuplicateAccountIDError(account.ID)
	}
	if _, ok := m.accountsByName[account.Name]; ok {
		return &DuplicateNameError{Name: account.Name}
	}

	m.accounts = append(m.accounts, account)
	m.accountsByID[account.ID] = len(m.accounts) - 1
	m.accountsByName[account.Name] = len(m.accounts) - 1
	return nil
}

func (m *MemoryStore) GetAccount(ctx context.Context, id int64) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.accountsByID[id]
	if !ok {
		return nil, nil
	}
	acc := m.accounts[i]
	return &acc, nil
}

func (m *MemoryStore) GetAccountByName(ctx context.Context, name string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.accountsByName[name]
	if !ok {
		return nil, nil
	}
	acc := m.accounts[i]
	return &acc, nil
}

func (m *MemoryStore) ListAccounts(ctx context.Context) ([]Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	accounts := make([]Account, len(m.accounts))
	copy(accounts, m.accounts)
	return accounts, nil
}

func (m *MemoryStore) AddTransaction(ctx context.Context, txn Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.txnsByID[txn.ID]; ok {
		return NewDuplicateTransactionIDError(txn.ID)
	}

	m.transactions = append(m.transactions, txn.Clone())
	m.txnsByID[txn.ID] = len(m.transactions) - 1
	return nil
}

func (m *MemoryStore) GetTransaction(ctx context.Context, id int64) (*Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.txnsByID[id]
	if !ok {
		return nil, nil
	}
	txn := m.transactions[i].Clone()
	return &txn, nil
}

func (m *MemoryStore) ListTransactions(ctx context.Context) ([]Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	txns := make([]Transaction, len(m.transactions))
	for i, txn := range m.transactions {
		txns[i] = txn.Clone()
	}
	return txns, nil
}

// Compile-time check
var _ Store = (*MemoryStore)(nil)
