package schema

// RegistrySequenceTable represents the 'registry.registry_sequence' counter table
type RegistrySequenceTable struct {
	Table     string
	Prefix    string
	Year      string
	LastValue string
}

var RegistrySequence = RegistrySequenceTable{
	Table:     "registry.registry_sequence",
	Prefix:    "prefix",
	Year:      "year",
	LastValue: "last_value",
}
