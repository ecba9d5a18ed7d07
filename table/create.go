package table

const (
	// CreateIdentifier holds one row per metric identity. The unique key
	// covers the six identifying columns; data_source_type is stored on
	// first insertion but never looked up.
	CreateIdentifier = `
CREATE TABLE IF NOT EXISTS identifier (
    id INT NOT NULL AUTO_INCREMENT,
    host VARCHAR(128) NOT NULL,
    plugin VARCHAR(128) NOT NULL,
    plugin_instance VARCHAR(128) NOT NULL,
    type VARCHAR(128) NOT NULL,
    type_instance VARCHAR(128) NOT NULL,
    data_source_name VARCHAR(128) NOT NULL,
    data_source_type VARCHAR(128) NOT NULL,
    PRIMARY KEY (id),
    UNIQUE KEY uniq_identifier (host, plugin, plugin_instance, type, type_instance, data_source_name)
);
`

	CreateData = `
CREATE TABLE IF NOT EXISTS data (
    identifier_id INT NOT NULL,
    timestamp DATETIME NOT NULL,
    value DOUBLE,
    KEY idx_identifier_timestamp (identifier_id, timestamp)
);
`

	DropIdentifier = "DROP TABLE IF EXISTS identifier;"
	DropData       = "DROP TABLE IF EXISTS data;"
)
