package services

// Partition splits a pool of MaxFileID files across NrUsers users. Each view
// pairs a light curve with its transit companion, so only half of the pool
// is dealt out and every user's batch counts both halves.
type Partition struct {
	NrUsers   int
	MaxFileID int
}

// CanonicalUserID folds ids of later cohorts back into [1, NrUsers]. Only a
// single fold is applied.
func (p Partition) CanonicalUserID(userID int64) int64 {
	if userID > int64(p.NrUsers) {
		return userID - int64(p.NrUsers)
	}
	return userID
}

// BatchSize returns the number of views assigned to userID. Users whose
// canonical id is below (half mod NrUsers)+1 get the rounded-up share.
func (p Partition) BatchSize(userID int64) int {
	half := p.MaxFileID / 2
	threshold := int64(half%p.NrUsers + 1)

	if p.CanonicalUserID(userID) < threshold {
		return (half + p.NrUsers - 1) / p.NrUsers * 2
	}
	return half / p.NrUsers * 2
}
