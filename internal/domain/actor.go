package domain

// Actor is the caller identity handed in by the identity collaborator on
// every operation. The core never derives it itself.
type Actor struct {
	ID         string
	Privileged bool
}

// CanAccess reports whether the actor may read or mutate a reservation
// owned by ownerID.
func (a Actor) CanAccess(ownerID string) bool {
	return a.Privileged || a.ID == ownerID
}
