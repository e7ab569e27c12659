package graphstore

const schema = `
CREATE TABLE IF NOT EXISTS kg_nodes (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	canonical_name TEXT NOT NULL,
	aliases JSONB NOT NULL DEFAULT '[]',
	extraction_method TEXT NOT NULL,
	extraction_confidence DOUBLE PRECISION NOT NULL,
	metadata JSONB NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS kg_edges (
	source_id TEXT NOT NULL REFERENCES kg_nodes(id),
	target_id TEXT NOT NULL REFERENCES kg_nodes(id),
	relation TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	extraction_method TEXT NOT NULL DEFAULT '',
	evidence_count INT NOT NULL DEFAULT 0,
	supporting_citation_ids JSONB NOT NULL DEFAULT '[]',
	PRIMARY KEY (source_id, target_id, relation)
);

CREATE INDEX IF NOT EXISTS kg_edges_source_idx ON kg_edges (source_id);
CREATE INDEX IF NOT EXISTS kg_edges_target_idx ON kg_edges (target_id);
CREATE INDEX IF NOT EXISTS kg_nodes_kind_idx ON kg_nodes (kind);
`
