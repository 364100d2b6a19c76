package mcp

// MatchInput defines the input schema for the match tool.
type MatchInput struct {
	Target map[string]string `json:"target" jsonschema:"query value for every configured field, keyed by field name"`
	Limit  int               `json:"limit,omitempty" jsonschema:"maximum number of matches, at most the configured top_n"`
}

// MatchOutput defines the output schema for the match tool.
type MatchOutput struct {
	Matches []MatchResultOutput `json:"matches" jsonschema:"ranked matches, best first"`
}

// MatchResultOutput is one ranked identity.
type MatchResultOutput struct {
	Rank       int                `json:"rank" jsonschema:"1-based rank"`
	ID         string             `json:"id" jsonschema:"record identity"`
	Similarity float64            `json:"similarity" jsonschema:"sum of the weighted field scores"`
	Fields     map[string]float64 `json:"fields" jsonschema:"weighted score per field"`
}

// IndexStatusInput defines the input schema for the index_status tool (no parameters).
type IndexStatusInput struct{}

// IndexStatusOutput defines the output schema for the index_status tool.
type IndexStatusOutput struct {
	Ready   bool                `json:"ready" jsonschema:"true when every configured field has an index"`
	TopN    int                 `json:"top_n" jsonschema:"maximum matches per query"`
	Fields  []string            `json:"fields" jsonschema:"configured field names"`
	Built   []FieldStatusOutput `json:"built" jsonschema:"fields with a built index"`
	Missing []string            `json:"missing,omitempty" jsonschema:"configured fields without an index"`
}

// FieldStatusOutput describes one built field index.
type FieldStatusOutput struct {
	Field     string  `json:"field"`
	Algorithm string  `json:"algorithm"`
	Weight    float64 `json:"weight"`
	Records   int     `json:"records"`
	Indexed   int     `json:"indexed"`
	Bytes     int64   `json:"bytes"`
	BuiltAt   string  `json:"built_at"`
}
