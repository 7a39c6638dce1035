package catalog

// Run configuration schemas, one per pipeline kind. Validation happens before
// a state is built, so stages can trust the shape of their inputs.

var directionSchema = map[string]any{
	"type":     "object",
	"required": []string{"title"},
	"properties": map[string]any{
		"id":          map[string]any{"type": "string"},
		"title":       map[string]any{"type": "string", "minLength": 1},
		"description": map[string]any{"type": "string"},
	},
}

var discoveryConfigSchema = map[string]any{
	"type":     "object",
	"required": []string{"topic"},
	"properties": map[string]any{
		"topic":       map[string]any{"type": "string", "minLength": 1},
		"constraints": map[string]any{"type": "object"},
	},
}

var deepDiveConfigSchema = map[string]any{
	"type":     "object",
	"required": []string{"direction"},
	"properties": map[string]any{
		"direction": directionSchema,
	},
}

var paperConfigSchema = map[string]any{
	"type":     "object",
	"required": []string{"direction"},
	"properties": map[string]any{
		"direction":        directionSchema,
		"deep_dive_report": map[string]any{"type": "string"},
		"experiment_files": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"experiment_data": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":    map[string]any{"type": "string"},
					"type":    map[string]any{"type": "string"},
					"content": map[string]any{"type": "string"},
				},
			},
		},
		"revision_instructions": map[string]any{"type": "string"},
	},
}
