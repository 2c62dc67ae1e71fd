package auth

// CanMutate reports whether the acting identity may mutate or delete a
// resource, given the owner id recorded on the resource at creation time.
// Exact, case-sensitive identifier equality; no roles, no admin override.
func CanMutate(actorID, ownerID string) bool {
	if actorID == "" || ownerID == "" {
		return false
	}
	return actorID == ownerID
}
