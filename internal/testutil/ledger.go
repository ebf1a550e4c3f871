// Package testutil provides in-memory repository fakes for service tests.
// The fakes keep real state and real transaction semantics (snapshot on
// begin, restore on error) so tests exercise commit and rollback behavior
// without a database.
package testutil

import (
	"sync"

	"github.com/shopspring/decimal"

	"smmpanel/internal/models"
	"smmpanel/internal/repositories"
)

type ledgerData struct {
	wallets      map[uint]models.Wallet
	entries      []models.LedgerEntry
	orders       map[uint]models.Order
	nextWalletID uint
	nextEntryID  uint
	nextOrderID  uint
}

func (d *ledgerData) clone() *ledgerData {
	c := &ledgerData{
		wallets:      make(map[uint]models.Wallet, len(d.wallets)),
		entries:      make([]models.LedgerEntry, len(d.entries)),
		orders:       make(map[uint]models.Order, len(d.orders)),
		nextWalletID: d.nextWalletID,
		nextEntryID:  d.nextEntryID,
		nextOrderID:  d.nextOrderID,
	}
	for id, w := range d.wallets {
		c.wallets[id] = w
	}
	copy(c.entries, d.entries)
	for id, o := range d.orders {
		c.orders[id] = o
	}
	return c
}

// LedgerStore is an in-memory LedgerRepository. ExecuteInTransaction holds a
// mutex for the whole unit of work, which mirrors the row-lock serialization
// the real store gets from SELECT ... FOR UPDATE; nested transactions behave
// like savepoints.
type LedgerStore struct {
	mu   *sync.Mutex
	data *ledgerData
	inTx bool

	// Optional failure injection
	FailCreateOrder error
	FailUpdateOrder error
	FailCreateEntry error
	FailUpdateWallet error
}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		mu: &sync.Mutex{},
		data: &ledgerData{
			wallets: make(map[uint]models.Wallet),
			orders:  make(map[uint]models.Order),
		},
	}
}

func (s *LedgerStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// SeedWallet creates a wallet with the given opening balance.
func (s *LedgerStore) SeedWallet(userID uint, balance decimal.Decimal) *models.Wallet {
	defer s.lock()()
	s.data.nextWalletID++
	w := models.Wallet{
		ID:       s.data.nextWalletID,
		UserID:   userID,
		Balance:  balance,
		Currency: "USD",
		Status:   models.WalletStatusActive,
	}
	s.data.wallets[w.ID] = w
	out := w
	return &out
}

// FreezeWallet flips the wallet for the user into the frozen state.
func (s *LedgerStore) FreezeWallet(userID uint) {
	defer s.lock()()
	for id, w := range s.data.wallets {
		if w.UserID == userID {
			w.Status = models.WalletStatusFrozen
			s.data.wallets[id] = w
			return
		}
	}
}

func (s *LedgerStore) CreateWallet(wallet *models.Wallet) error {
	defer s.lock()()
	for _, w := range s.data.wallets {
		if w.UserID == wallet.UserID {
			return repositories.ErrDuplicateKey
		}
	}
	s.data.nextWalletID++
	wallet.ID = s.data.nextWalletID
	wallet.Balance = decimal.Zero
	if wallet.Status == "" {
		wallet.Status = models.WalletStatusActive
	}
	s.data.wallets[wallet.ID] = *wallet
	return nil
}

func (s *LedgerStore) GetWalletByUserID(userID uint) (*models.Wallet, error) {
	defer s.lock()()
	for _, w := range s.data.wallets {
		if w.UserID == userID {
			out := w
			return &out, nil
		}
	}
	return nil, repositories.ErrWalletNotFound
}

func (s *LedgerStore) GetWalletForUpdate(userID uint) (*models.Wallet, error) {
	return s.GetWalletByUserID(userID)
}

func (s *LedgerStore) UpdateWallet(wallet *models.Wallet) error {
	if s.FailUpdateWallet != nil {
		return s.FailUpdateWallet
	}
	defer s.lock()()
	if _, ok := s.data.wallets[wallet.ID]; !ok {
		return repositories.ErrWalletNotFound
	}
	s.data.wallets[wallet.ID] = *wallet
	return nil
}

func (s *LedgerStore) CreateEntry(entry *models.LedgerEntry) error {
	if s.FailCreateEntry != nil {
		return s.FailCreateEntry
	}
	defer s.lock()()
	if entry.Reference != nil {
		for _, e := range s.data.entries {
			if e.Reference != nil && *e.Reference == *entry.Reference {
				return repositories.ErrDuplicateKey
			}
		}
	}
	s.data.nextEntryID++
	entry.ID = s.data.nextEntryID
	s.data.entries = append(s.data.entries, *entry)
	return nil
}

func (s *LedgerStore) GetEntryByReference(reference string) (*models.LedgerEntry, error) {
	defer s.lock()()
	for _, e := range s.data.entries {
		if e.Reference != nil && *e.Reference == reference {
			out := e
			return &out, nil
		}
	}
	return nil, repositories.ErrEntryNotFound
}

func (s *LedgerStore) ListEntriesByOrder(orderID uint) ([]models.LedgerEntry, error) {
	defer s.lock()()
	var out []models.LedgerEntry
	for _, e := range s.data.entries {
		if e.OrderID != nil && *e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *LedgerStore) ListEntriesByUser(userID uint, limit, offset int) ([]models.LedgerEntry, error) {
	defer s.lock()()
	var all []models.LedgerEntry
	for i := len(s.data.entries) - 1; i >= 0; i-- {
		if s.data.entries[i].UserID == userID {
			all = append(all, s.data.entries[i])
		}
	}
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (s *LedgerStore) SumEntriesByUser(userID uint) (decimal.Decimal, error) {
	defer s.lock()()
	sum := decimal.Zero
	for i := range s.data.entries {
		if s.data.entries[i].UserID == userID {
			sum = sum.Add(s.data.entries[i].Signed())
		}
	}
	return sum, nil
}

func (s *LedgerStore) CreateOrder(order *models.Order) error {
	if s.FailCreateOrder != nil {
		return s.FailCreateOrder
	}
	defer s.lock()()
	s.data.nextOrderID++
	order.ID = s.data.nextOrderID
	s.data.orders[order.ID] = *order
	return nil
}

func (s *LedgerStore) UpdateOrder(order *models.Order) error {
	if s.FailUpdateOrder != nil {
		return s.FailUpdateOrder
	}
	defer s.lock()()
	if _, ok := s.data.orders[order.ID]; !ok {
		return repositories.ErrOrderNotFound
	}
	s.data.orders[order.ID] = *order
	return nil
}

func (s *LedgerStore) GetOrderByID(id uint) (*models.Order, error) {
	defer s.lock()()
	o, ok := s.data.orders[id]
	if !ok {
		return nil, repositories.ErrOrderNotFound
	}
	out := o
	return &out, nil
}

func (s *LedgerStore) GetOrderForUpdate(id uint) (*models.Order, error) {
	return s.GetOrderByID(id)
}

func (s *LedgerStore) GetOrderByReference(reference string) (*models.Order, error) {
	defer s.lock()()
	for _, o := range s.data.orders {
		if o.Reference == reference {
			out := o
			return &out, nil
		}
	}
	return nil, repositories.ErrOrderNotFound
}

func (s *LedgerStore) ListOrdersByUser(userID uint, limit, offset int) ([]models.Order, error) {
	defer s.lock()()
	var all []models.Order
	for id := s.data.nextOrderID; id >= 1; id-- {
		if o, ok := s.data.orders[id]; ok && o.UserID == userID {
			all = append(all, o)
		}
	}
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (s *LedgerStore) ListOrdersByProviderAndStatus(providerID uint, status models.OrderStatus) ([]models.Order, error) {
	defer s.lock()()
	var out []models.Order
	for id := uint(1); id <= s.data.nextOrderID; id++ {
		if o, ok := s.data.orders[id]; ok && o.ProviderID == providerID && o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *LedgerStore) ExecuteInTransaction(fn func(repositories.LedgerRepository) error) error {
	if s.inTx {
		// Savepoint: restore only the nested work on error.
		snapshot := s.data.clone()
		if err := fn(s); err != nil {
			*s.data = *snapshot
			return err
		}
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	tx := &LedgerStore{
		mu:               s.mu,
		data:             s.data,
		inTx:             true,
		FailCreateOrder:  s.FailCreateOrder,
		FailUpdateOrder:  s.FailUpdateOrder,
		FailCreateEntry:  s.FailCreateEntry,
		FailUpdateWallet: s.FailUpdateWallet,
	}
	if err := fn(tx); err != nil {
		*s.data = *snapshot
		return err
	}
	return nil
}

var _ repositories.LedgerRepository = (*LedgerStore)(nil)
