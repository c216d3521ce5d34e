package sqlite

// File names inside DataDir.
const (
	dbFileName      = "larder.db"
	recordsJSONL    = "records.jsonl"
	jsonlTempPrefix = ".records-*.tmp"
)

// Schema DDL. The database is rebuilt from records.jsonl on every Attach, so
// there are no migrations.
const createRecords = `CREATE TABLE records (
    address TEXT PRIMARY KEY,
    space INTEGER NOT NULL,
    data BLOB NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

// schemaDDL lists all statements executed on a fresh database.
var schemaDDL = []string{
	createRecords,
}

// pragmas applied to every new connection.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
}
