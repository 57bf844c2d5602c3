package store

// SchemaVersion is the version stamped into the meta table of every store.
// New stores are stamped with this value directly so that future incremental
// migrations treat them as already at head.
const SchemaVersion = 1

// Schema DDL for a tenant store. One store file holds exactly one board:
// its lists, its cards, and a meta table for store-level bookkeeping.
const (
	createMeta = `CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`

	createLists = `CREATE TABLE IF NOT EXISTS lists (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    position INTEGER NOT NULL,
    created_at_millis INTEGER NOT NULL,
    updated_at_millis INTEGER NOT NULL
);`

	createCards = `CREATE TABLE IF NOT EXISTS cards (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    list_id INTEGER NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    position INTEGER NOT NULL,
    created_at_millis INTEGER NOT NULL,
    updated_at_millis INTEGER NOT NULL,
    FOREIGN KEY (list_id) REFERENCES lists(id)
);`
)

// Index DDL for the queries the position engine issues on every mutation.
// Positions are intentionally NOT declared UNIQUE: range shifts update rows
// one at a time and would trip a unique index mid-shift. Density is owned by
// the service layer and enforced inside its transactions.
const (
	idxListsPosition = `CREATE INDEX IF NOT EXISTS idx_lists_position ON lists(position);`
	idxCardsList     = `CREATE INDEX IF NOT EXISTS idx_cards_list ON cards(list_id, position);`
)

// schemaDDL lists all statements in dependency order.
var schemaDDL = []string{
	createMeta,
	createLists,
	createCards,
	idxListsPosition,
	idxCardsList,
}

// Meta keys stamped at store creation.
const (
	metaSchemaVersion = "schema_version"
	metaStoreUID      = "store_uid"
	metaCreatedAt     = "created_at"
)
