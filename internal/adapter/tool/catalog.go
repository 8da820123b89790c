package tool

// Catalog returns every tool definition in publication order. The order is
// fixed so that tools/list is stable across calls and releases.
func Catalog() []Definition {
	var defs []Definition
	for _, group := range [][]Definition{
		connectionTools(),
		indexTools(),
		documentTools(),
		searchTools(),
		taskTools(),
		keyTools(),
		monitoringTools(),
		chatTools(),
	} {
		defs = append(defs, group...)
	}
	return defs
}

// NewCatalogRegistry builds the registry holding Catalog().
func NewCatalogRegistry() (*Registry, error) {
	return NewRegistry(Catalog())
}

// emptyObjectSchema is the input schema of tools that take no arguments.
const emptyObjectSchema = `{
	"type": "object",
	"properties": {},
	"additionalProperties": false
}`
