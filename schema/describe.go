package schema

import (
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"
)

var (
	cacheMu sync.Mutex
	cache   = map[string]map[string]any{}
)

// Describe reflects v's type into a JSON Schema and returns it as a plain map
// so it can be merged into responses and fed to Validate. Fields tagged
// `jsonschema:"required"` are required; unknown properties are tolerated.
func Describe(name string, v any) map[string]any {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if s, ok := cache[name]; ok {
		return clone(s)
	}
	r := &jsonschema.Reflector{
		AllowAdditionalProperties:  true,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	raw, err := json.Marshal(r.Reflect(v))
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{"type": "object"}
	}
	delete(out, "$schema")
	out["title"] = name
	cache[name] = out
	return clone(out)
}

func clone(m map[string]any) map[string]any {
	raw, _ := json.Marshal(m)
	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return out
}
