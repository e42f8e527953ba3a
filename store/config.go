package store

// DefaultPartitionKeyAttr is the attribute that holds an item's partition key.
const DefaultPartitionKeyAttr = "pk"

// Config holds configuration for a Store bound to one table.
type Config struct {
	// Table is the DynamoDB table name. Required.
	Table string

	// PartitionKeyAttr is the table's hash key attribute.
	// Write sets it from the partition key argument; scoped queries filter on it.
	// Default: "pk"
	PartitionKeyAttr string

	// Overwrite replaces existing items on Write.
	// When false (default), Write only creates: an existing item with the same
	// key fails with a Conflict error.
	Overwrite bool
}

// DefaultConfig returns a create-only configuration for the given table.
func DefaultConfig(table string) Config {
	return Config{
		Table:            table,
		PartitionKeyAttr: DefaultPartitionKeyAttr,
	}
}

// validate fills defaults for optional fields.
func (c *Config) validate() {
	if c.PartitionKeyAttr == "" {
		c.PartitionKeyAttr = DefaultPartitionKeyAttr
	}
}
