package eav

// SchemaStatements creates the fixed five-table layout the engine maps
// onto: the central objects table and one satellite table per attribute
// category. The composite primary keys on the satellites are what makes
// per-attribute upserts well defined.
var SchemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS objects (
	object_id      BIGINT PRIMARY KEY,
	parent_id      BIGINT,
	object_type_id BIGINT NOT NULL,
	name           TEXT,
	description    TEXT
)`,
	`CREATE TABLE IF NOT EXISTS attributes (
	object_id BIGINT NOT NULL,
	attr_id   BIGINT NOT NULL,
	value     TEXT,
	PRIMARY KEY (object_id, attr_id)
)`,
	`CREATE TABLE IF NOT EXISTS date_attributes (
	object_id  BIGINT NOT NULL,
	attr_id    BIGINT NOT NULL,
	date_value TIMESTAMP,
	PRIMARY KEY (object_id, attr_id)
)`,
	`CREATE TABLE IF NOT EXISTS list_attributes (
	object_id     BIGINT NOT NULL,
	attr_id       BIGINT NOT NULL,
	list_value_id BIGINT,
	PRIMARY KEY (object_id, attr_id)
)`,
	`CREATE TABLE IF NOT EXISTS object_references (
	object_id BIGINT NOT NULL,
	attr_id   BIGINT NOT NULL,
	reference BIGINT,
	PRIMARY KEY (object_id, attr_id)
)`,
}
