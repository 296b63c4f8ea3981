package blueprint

import "github.com/invopop/jsonschema"

// Schema describes the blueprint YAML document for editor tooling and
// validation in the content pipeline.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		FieldNameTag:   "yaml",
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(new(Catalog))
	schema.Title = "Grindfall Blueprint"
	schema.Description = "Static game data: player template, skills, monsters, areas, items and the passive tree."
	return schema
}
