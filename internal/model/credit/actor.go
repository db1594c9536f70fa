package credit

// Identity is what the authentication layer knows about a signed-in user.
type Identity struct {
	UserID   string `json:"userId"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"fullName,omitempty"`
}

// GuestStore holds the credit counter of an anonymous visitor. Get
// initialises the counter to its default on first read.
type GuestStore interface {
	Get() int
	Set(credits int)
}

// ActorKind distinguishes guests from signed-in accounts.
type ActorKind int

const (
	ActorGuest ActorKind = iota
	ActorAccount
)

func (k ActorKind) String() string {
	if k == ActorAccount {
		return "account"
	}
	return "guest"
}

// Actor is whoever submits a request: either a guest backed by a GuestStore
// or an account backed by an Identity, never both.
type Actor struct {
	kind     ActorKind
	guest    GuestStore
	identity Identity
}

// GuestActor returns a guest actor reading credits from store.
func GuestActor(store GuestStore) Actor {
	return Actor{kind: ActorGuest, guest: store}
}

// AccountActor returns an authenticated actor.
func AccountActor(id Identity) Actor {
	return Actor{kind: ActorAccount, identity: id}
}

func (a Actor) Kind() ActorKind        { return a.kind }
func (a Actor) IsGuest() bool          { return a.kind == ActorGuest }
func (a Actor) Identity() Identity     { return a.identity }
func (a Actor) GuestStore() GuestStore { return a.guest }
