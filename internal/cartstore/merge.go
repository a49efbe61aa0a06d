package cartstore

// MergePolicy resolves a quantity conflict during guest-to-user
// reconciliation, when the signing-in guest holds a line for a product the
// user's cart already contains. It returns the quantity the user's line
// should end up with.
type MergePolicy func(userQty, guestQty int) int

// UserQuantityWins keeps the user's existing quantity and drops the guest
// quantity. This is the default.
func UserQuantityWins(userQty, _ int) int {
	return userQty
}

// SumQuantities adds the guest quantity onto the user's line.
func SumQuantities(userQty, guestQty int) int {
	return userQty + guestQty
}
