package types

import "errors"

// Counter and lifecycle errors.
var (
	ErrOverflow          = errors.New("counter overflow")
	ErrUnderflow         = errors.New("counter underflow")
	ErrInvariantViolated = errors.New("live count exceeds next index")
	ErrAlreadyMarked     = errors.New("item already marked")
)

// Profile is the single root record of an owner. It owns the item index
// sequence and the count of live items.
type Profile struct {
	Owner     Identity `json:"owner"`
	NextIndex uint64   `json:"next_index"`
	LiveCount uint64   `json:"live_count"`
}

// NewProfile returns an empty profile for owner.
func NewProfile(owner Identity) *Profile {
	return &Profile{Owner: owner}
}

// Advance reserves the next item index. NextIndex and LiveCount are both
// incremented; neither may pass ceiling. On error the profile is unchanged.
func (p *Profile) Advance(ceiling uint64) (uint64, error) {
	next, err := checkedIncrement(p.NextIndex, ceiling)
	if err != nil {
		return 0, err
	}
	live, err := checkedIncrement(p.LiveCount, ceiling)
	if err != nil {
		return 0, err
	}
	index := p.NextIndex
	p.NextIndex, p.LiveCount = next, live
	return index, nil
}

// Release records the deletion of one live item. NextIndex is never
// decremented, so a deleted item's index is retired for good.
func (p *Profile) Release() error {
	live, err := checkedDecrement(p.LiveCount)
	if err != nil {
		return err
	}
	p.LiveCount = live
	return nil
}

// CheckInvariant returns ErrInvariantViolated unless LiveCount <= NextIndex.
func (p *Profile) CheckInvariant() error {
	if p.LiveCount > p.NextIndex {
		return ErrInvariantViolated
	}
	return nil
}

func checkedIncrement(v, ceiling uint64) (uint64, error) {
	if v >= ceiling {
		return v, ErrOverflow
	}
	return v + 1, nil
}

func checkedDecrement(v uint64) (uint64, error) {
	if v == 0 {
		return v, ErrUnderflow
	}
	return v - 1, nil
}
