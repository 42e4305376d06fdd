package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

func newCatalog() *Catalog {
	return NewCatalog(NewServiceRepoMemory(), NewRoomRepoMemory())
}

func TestCreateService(t *testing.T) {
	cat := newCatalog()
	s := &Service{Name: "Massage", Price: decimal.NewFromInt(80), Duration: 60, Active: true}

	if err := cat.CreateService(context.Background(), s); err != nil {
		t.Fatalf("CreateService: %v", err)
	}
	if s.Category != CategoryService {
		t.Errorf("Category = %q, want default service", s.Category)
	}
}

func TestCreateService_NameRequired(t *testing.T) {
	cat := newCatalog()
	if err := cat.CreateService(context.Background(), &Service{Price: decimal.NewFromInt(10)}); err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestCreateService_RejectsNegativePrice(t *testing.T) {
	cat := newCatalog()
	s := &Service{Name: "Massage", Price: decimal.NewFromInt(-5)}
	if err := cat.CreateService(context.Background(), s); err == nil {
		t.Fatal("expected error for negative price")
	}
}

func TestCreateService_RejectsUnknownCategory(t *testing.T) {
	cat := newCatalog()
	s := &Service{Name: "Massage", Category: "bundle"}
	if err := cat.CreateService(context.Background(), s); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestListServicesActiveOnly(t *testing.T) {
	cat := newCatalog()
	ctx := context.Background()
	cat.CreateService(ctx, &Service{Name: "Massage", Active: true})
	cat.CreateService(ctx, &Service{Name: "Retired facial", Active: false})

	items, total, err := cat.ListServices(ctx, true, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || items[0].Name != "Massage" {
		t.Fatalf("total = %d, items = %v", total, items)
	}
}

func TestCreateRoom(t *testing.T) {
	cat := newCatalog()
	r := &Room{Name: "Room 1", Active: true}
	if err := cat.CreateRoom(context.Background(), r); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	got, err := cat.GetRoom(context.Background(), r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Room 1" {
		t.Errorf("Name = %q", got.Name)
	}
}
