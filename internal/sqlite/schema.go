package sqlite

// Schema DDL. Statements are idempotent so an existing database is reused
// across Attach calls.
const (
	createNodes = `CREATE TABLE IF NOT EXISTS nodes (
    node_id TEXT PRIMARY KEY,
    parent_id TEXT,
    name TEXT NOT NULL,
    type_name TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    created_at TEXT NOT NULL
);`

	createProperties = `CREATE TABLE IF NOT EXISTS properties (
    node_id TEXT NOT NULL,
    name TEXT NOT NULL,
    value_type TEXT NOT NULL,
    multiple INTEGER NOT NULL,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (node_id, name)
);`
)

// Index DDL for child lookups by name and by order.
const (
	idxNodesParentName    = `CREATE UNIQUE INDEX IF NOT EXISTS idx_nodes_parent_name ON nodes(parent_id, name);`
	idxNodesParentOrdinal = `CREATE INDEX IF NOT EXISTS idx_nodes_parent_ordinal ON nodes(parent_id, ordinal);`
	idxPropertiesNode     = `CREATE INDEX IF NOT EXISTS idx_properties_node ON properties(node_id);`
)

// schemaDDL lists all statements in dependency order.
var schemaDDL = []string{
	createNodes,
	createProperties,
	idxNodesParentName,
	idxNodesParentOrdinal,
	idxPropertiesNode,
}

// subtreeCTE selects the ids of a node and all of its descendants.
const subtreeCTE = `WITH RECURSIVE subtree(id) AS (
    SELECT ?
    UNION ALL
    SELECT n.node_id FROM nodes n JOIN subtree s ON n.parent_id = s.id
)`
