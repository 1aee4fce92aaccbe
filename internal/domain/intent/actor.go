package intent

// ActorType discriminates the two kinds of actors that can click a CTA.
type ActorType string

const (
	ActorVisitor ActorType = "visitor"
	ActorUser    ActorType = "user"
)

// Actor identifies who performed a CTA interaction. It is a closed union:
// either an anonymous Visitor carrying a browser fingerprint and session id,
// or an authenticated User carrying an account id. Modeling this as a union
// rather than a string discriminator plus nullable id makes the invalid
// combination (actor_type=user with no id) unrepresentable.
type Actor interface {
	ActorType() ActorType
}

// Visitor is an anonymous actor identified by fingerprint and session.
type Visitor struct {
	Fingerprint string
	SessionID   string
}

func (Visitor) ActorType() ActorType { return ActorVisitor }

// User is an authenticated actor identified by account id.
type User struct {
	ID string
}

func (User) ActorType() ActorType { return ActorUser }
