package domain

// Namespace partitions sessions into isolated stores with their own TTL,
// cookie, and identity-binding rules. A session's namespace never changes.
type Namespace string

const (
	NamespaceAdmin  Namespace = "admin"
	NamespacePublic Namespace = "public"
)

func (n Namespace) Valid() bool {
	return n == NamespaceAdmin || n == NamespacePublic
}

// RequiresIdentity reports whether sessions in this namespace are only
// meaningful when bound to an identity. Admin sessions are bound at creation;
// public sessions start anonymous.
func (n Namespace) RequiresIdentity() bool {
	return n == NamespaceAdmin
}
