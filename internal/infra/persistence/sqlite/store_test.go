package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"shobergarden/pkg/domain"
	"testing"
)

func TestSQLiteStorePersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	var petID string
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		pet, e := tx.CreatePet(domain.Pet{OwnerID: "alice", Name: "Persist", DNA: "0a0a06090200030000000000", IsForSale: true})
		if e != nil {
			return e
		}
		petID = pet.ID
		if _, e := tx.CreateWallet(domain.Wallet{Base: domain.Base{ID: "alice"}, Coins: 75}); e != nil {
			return e
		}
		_, e = tx.CreateListing(domain.Listing{PetID: pet.ID, SellerID: "alice", Price: 120})
		return e
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if store.Path() != path {
		t.Fatalf("unexpected path %s", store.Path())
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	pet, ok := reloaded.GetPet(petID)
	if !ok || pet.Name != "Persist" || pet.DNA != "0a0a06090200030000000000" {
		t.Fatalf("expected pet to survive reload, got %+v", pet)
	}
	if !pet.IsForSale || pet.SalePrice == nil || *pet.SalePrice != 120 {
		t.Fatalf("expected listing to be restored, got %+v", pet)
	}
	if w, ok := reloaded.GetWallet("alice"); !ok || w.Coins != 75 {
		t.Fatalf("expected wallet to survive reload, got %+v", w)
	}
}

func TestSQLiteStoreWritesEveryBucket(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"), nil)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreateWallet(domain.Wallet{Base: domain.Base{ID: "bob"}})
		return e
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	var count int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM state`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 6 {
		t.Fatalf("expected 6 buckets, got %d", count)
	}
}

func TestSQLiteStoreSkipsPersistOnError(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"), nil)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	boom := errors.New("boom")
	if _, err := store.RunInTransaction(context.Background(), func(domain.Transaction) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	var count int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM state`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("failed transaction must not persist, got %d rows", count)
	}
}

func TestSQLiteStoreRejectsCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if _, err := store.DB().Exec(`INSERT INTO state(bucket,payload) VALUES('pets', 'not json')`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_ = store.Close()
	if _, err := NewStore(path, nil); err == nil {
		t.Fatalf("expected decode error for corrupt bucket")
	}
}

func TestSQLiteStorePersistFailsOnClosedDB(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"), nil)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	_ = store.DB().Close()
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreateWallet(domain.Wallet{Base: domain.Base{ID: "carol"}})
		return e
	})
	if err == nil {
		t.Fatalf("expected persist error on closed database")
	}
	if _, ok := store.GetWallet("carol"); !ok {
		t.Fatalf("in-memory commit precedes the snapshot")
	}
}
