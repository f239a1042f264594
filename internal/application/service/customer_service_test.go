package service

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
)

func TestGrantStoreCredit(t *testing.T) {
	newSvc := func(c *entity.Customer) (*CustomerService, *fakeCustomerRepo) {
		repo := &fakeCustomerRepo{customers: map[uuid.UUID]*entity.Customer{c.ID: c}}
		return NewCustomerService(repo), repo
	}

	t.Run("grants credit at the customer currency scale", func(t *testing.T) {
		customer := &entity.Customer{ID: uuid.New(), Currency: "KES"}
		svc, _ := newSvc(customer)

		got, err := svc.GrantStoreCredit(testCtx(), customer.ID, 150.75)
		if err != nil {
			t.Fatalf("GrantStoreCredit: %v", err)
		}
		if got.StoreCredit != 15075 {
			t.Errorf("StoreCredit = %d, want 15075", got.StoreCredit)
		}
	})

	t.Run("zero-digit currencies store whole units", func(t *testing.T) {
		customer := &entity.Customer{ID: uuid.New(), Currency: "JPY"}
		svc, _ := newSvc(customer)

		got, err := svc.GrantStoreCredit(testCtx(), customer.ID, 500)
		if err != nil {
			t.Fatalf("GrantStoreCredit: %v", err)
		}
		if got.StoreCredit != 500 {
			t.Errorf("StoreCredit = %d, want 500", got.StoreCredit)
		}
	})

	t.Run("refuses redeeming past the balance", func(t *testing.T) {
		customer := &entity.Customer{ID: uuid.New(), Currency: "KES", StoreCredit: 1000}
		svc, _ := newSvc(customer)

		_, err := svc.GrantStoreCredit(testCtx(), customer.ID, -50)
		if err == nil {
			t.Fatal("overdraw succeeded")
		}
		if !strings.Contains(err.Error(), "Insufficient") {
			t.Errorf("err = %v, want insufficient credit", err)
		}
		if customer.StoreCredit != 1000 {
			t.Errorf("StoreCredit = %d, balance changed on refused redemption", customer.StoreCredit)
		}
	})

	t.Run("redeems within the balance", func(t *testing.T) {
		customer := &entity.Customer{ID: uuid.New(), Currency: "KES", StoreCredit: 10000}
		svc, _ := newSvc(customer)

		got, err := svc.GrantStoreCredit(testCtx(), customer.ID, -25)
		if err != nil {
			t.Fatalf("GrantStoreCredit: %v", err)
		}
		if got.StoreCredit != 7500 {
			t.Errorf("StoreCredit = %d, want 7500", got.StoreCredit)
		}
	})

	t.Run("rejects a zero amount", func(t *testing.T) {
		customer := &entity.Customer{ID: uuid.New(), Currency: "KES"}
		svc, _ := newSvc(customer)

		if _, err := svc.GrantStoreCredit(testCtx(), customer.ID, 0); err == nil {
			t.Error("zero amount accepted")
		}
	})

	t.Run("unknown customer is not found", func(t *testing.T) {
		svc, _ := newSvc(&entity.Customer{ID: uuid.New(), Currency: "KES"})

		if _, err := svc.GrantStoreCredit(testCtx(), uuid.New(), 10); err == nil {
			t.Error("missing customer accepted")
		}
	})
}
