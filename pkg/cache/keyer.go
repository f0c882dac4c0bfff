package cache

// Keyer derives cache keys for pipeline stages.
type Keyer interface {
	// ParseKey is the key of a parsed document. format names the input
	// encoding ("nml" or "json").
	ParseKey(contentHash, format string) string

	// TransformKey is the key of a document after the given transforms.
	TransformKey(contentHash string, opts TransformKeyOpts) string
}

// TransformKeyOpts lists every option that changes a transform result.
type TransformKeyOpts struct {
	Split          bool       `json:"split,omitempty"`
	MaxEdgeLength  float64    `json:"max_edge_length,omitempty"`
	SimplifyLength float64    `json:"simplify_length,omitempty"`
	SimplifyAngle  float64    `json:"simplify_angle,omitempty"`
	Merge          bool       `json:"merge,omitempty"`
	Scale          [3]float64 `json:"scale,omitempty"`
	Reglobalize    bool       `json:"reglobalize,omitempty"`
	Seed           uint64     `json:"seed,omitempty"`
}

// DefaultKeyer is the stock Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ParseKey returns "parse:<format>:<contentHash>".
func (DefaultKeyer) ParseKey(contentHash, format string) string {
	return "parse:" + format + ":" + contentHash
}

// TransformKey hashes the options together with the content hash.
func (DefaultKeyer) TransformKey(contentHash string, opts TransformKeyOpts) string {
	return hashKey("transform", contentHash, opts)
}
