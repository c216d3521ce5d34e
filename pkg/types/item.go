package types

// Item is one todo entry of an owner. Index and Payload are fixed at
// creation; Done moves from false to true at most once.
type Item struct {
	Owner   Identity `json:"owner"`
	Index   uint64   `json:"index"`
	Payload []byte   `json:"payload"`
	Done    bool     `json:"done"`
}

// Mark sets Done. Returns ErrAlreadyMarked if the item is already done.
func (i *Item) Mark() error {
	if i.Done {
		return ErrAlreadyMarked
	}
	i.Done = true
	return nil
}
