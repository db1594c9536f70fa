package credit

import "testing"

type fixedStore struct{ n int }

func (s *fixedStore) Get() int  { return s.n }
func (s *fixedStore) Set(n int) { s.n = n }

func TestActorVariants(t *testing.T) {
	guest := GuestActor(&fixedStore{n: 3})
	if !guest.IsGuest() || guest.Kind().String() != "guest" {
		t.Fatalf("expected guest actor, got %v", guest.Kind())
	}
	if guest.GuestStore().Get() != 3 {
		t.Fatal("expected guest store to be carried")
	}

	account := AccountActor(Identity{UserID: "user_1", Email: "a@example.com"})
	if account.IsGuest() || account.Kind().String() != "account" {
		t.Fatalf("expected account actor, got %v", account.Kind())
	}
	if account.Identity().UserID != "user_1" {
		t.Fatalf("unexpected identity %+v", account.Identity())
	}
	if account.GuestStore() != nil {
		t.Fatal("account actor must not carry a guest store")
	}
}
