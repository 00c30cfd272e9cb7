package local

import "strings"

// CatalogEntry describes a model that can be downloaded and served locally.
type CatalogEntry struct {
	ID        string
	Name      string
	URL       string
	FileName  string
	SizeBytes int64 // approximate, for display
}

var catalog = []CatalogEntry{
	{
		ID:        "smollm2-360m-q8_0",
		Name:      "SmolLM2 360M Q8_0",
		URL:       "https://huggingface.co/Triangle104/SmolLM2-360M-Q8_0-GGUF/resolve/main/smollm2-360m-q8_0.gguf",
		FileName:  "smollm2-360m-q8_0.gguf",
		SizeBytes: 386_000_000,
	},
	{
		ID:        "qwen2.5-0.5b-instruct-q6_k",
		Name:      "Qwen 2.5 0.5B Instruct Q6_K",
		URL:       "https://huggingface.co/Triangle104/Qwen2.5-0.5B-Instruct-Q6_K-GGUF/resolve/main/qwen2.5-0.5b-instruct-q6_k.gguf",
		FileName:  "qwen2.5-0.5b-instruct-q6_k.gguf",
		SizeBytes: 506_000_000,
	},
}

// Catalog returns the registered models.
func Catalog() []CatalogEntry {
	out := make([]CatalogEntry, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a catalog entry by id, display name or file name.
func Lookup(ref string) (CatalogEntry, bool) {
	ref = strings.TrimSpace(ref)
	for _, e := range catalog {
		if strings.EqualFold(e.ID, ref) || strings.EqualFold(e.Name, ref) || strings.EqualFold(e.FileName, ref) {
			return e, true
		}
	}
	return CatalogEntry{}, false
}
