package sqlite

// recordJSON is one line of records.jsonl. Data is base64 in the file.
type recordJSON struct {
	Address   string `json:"address"`
	Space     int    `json:"space"`
	Data      []byte `json:"data"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
