package domain

// Variety is reference data owned by an external administrative collaborator.
// Predictions join against it by common name; only active varieties are
// accepted at classification time.
type Variety struct {
	CommonName     string `json:"common_name" yaml:"commonName"`
	ScientificName string `json:"scientific_name,omitempty" yaml:"scientificName"`
	Description    string `json:"description,omitempty" yaml:"description"`
	Active         bool   `json:"active" yaml:"active"`
}
