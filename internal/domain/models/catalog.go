package models

// CatalogEntry is one selectable company from the static catalog file.
type CatalogEntry struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// Names returns the selectable names in catalog order.
func Names(entries []CatalogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}
