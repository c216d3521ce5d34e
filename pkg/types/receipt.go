package types

// Operation names reported in receipts.
const (
	OpInitializeProfile = "initialize_profile"
	OpAddItem           = "add_item"
	OpMarkItem          = "mark_item"
	OpDeleteItem        = "delete_item"
)

// Receipt describes a committed mutating operation.
type Receipt struct {
	TxnID     string   `json:"txn_id"`    // UUID v7.
	Operation string   `json:"operation"` // One of the Op constants.
	Owner     Identity `json:"owner"`
	Address   Address  `json:"address"` // Address of the record the operation targeted.
	Nonce     Nonce    `json:"nonce"`
	Index     uint64   `json:"index"` // Item index; zero for profile operations.
	Profile   Profile  `json:"profile"`
}
