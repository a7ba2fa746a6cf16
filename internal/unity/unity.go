package unity

import "context"

// Command names understood by the editor plugin.
const (
	CmdGetAssetList               = "GET_ASSET_LIST"
	CmdImportAsset                = "IMPORT_ASSET"
	CmdInstantiatePrefab          = "INSTANTIATE_PREFAB"
	CmdCreatePrefab               = "CREATE_PREFAB"
	CmdApplyPrefab                = "APPLY_PREFAB"
	CmdFindObjectsByName          = "FIND_OBJECTS_BY_NAME"
	CmdGetObjectProperties        = "GET_OBJECT_PROPERTIES"
	CmdSetMaterial                = "SET_MATERIAL"
	CmdCreateAdvancedMaterial     = "CREATE_ADVANCED_MATERIAL"
	CmdSetMaterialProperties      = "SET_MATERIAL_PROPERTIES"
	CmdSetMaterialTexture         = "SET_MATERIAL_TEXTURE"
	CmdCreateMaterialFromTemplate = "CREATE_MATERIAL_FROM_TEMPLATE"
	CmdPing                       = "PING"
)

// CommandSender is the editor-side collaborator. Implementations send a
// single named command with a parameter mapping and block until the plugin
// answers or the context deadline expires.
type CommandSender interface {
	SendCommand(ctx context.Context, name string, params map[string]any) (Response, error)
}

// Params is the parameter mapping sent alongside a command name.
type Params = map[string]any

// Response is the decoded JSON reply from the editor plugin. The plugin
// signals mutating-command failure with success=false plus an error string;
// read commands carry command-specific fields (assets, objects, message).
type Response map[string]any

// OK reports whether the plugin flagged the command as successful.
func (r Response) OK() bool {
	ok, _ := r["success"].(bool)

	return ok
}

// ErrorMessage returns the plugin-reported error string, or "unknown error"
// when the field is absent or not a string.
func (r Response) ErrorMessage() string {
	if msg, ok := r["error"].(string); ok && msg != "" {
		return msg
	}

	return "unknown error"
}

// Message returns the plugin-provided message field, falling back to the
// given default when missing.
func (r Response) Message(fallback string) string {
	if msg, ok := r["message"].(string); ok && msg != "" {
		return msg
	}

	return fallback
}

// Str returns the string value stored under key, or "" when absent.
func (r Response) Str(key string) string {
	s, _ := r[key].(string)

	return s
}

// Asset is a project resource entry returned by GET_ASSET_LIST.
type Asset struct {
	Path string
	Name string
}

// Assets decodes the "assets" field of a GET_ASSET_LIST response.
func (r Response) Assets() []Asset {
	raw, ok := r["assets"].([]any)
	if !ok {
		return nil
	}

	assets := make([]Asset, 0, len(raw))

	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		path, _ := m["path"].(string)
		name, _ := m["name"].(string)
		assets = append(assets, Asset{Path: path, Name: name})
	}

	return assets
}

// HasAssetAt reports whether any returned asset entry matches path exactly.
func (r Response) HasAssetAt(path string) bool {
	for _, asset := range r.Assets() {
		if asset.Path == path {
			return true
		}
	}

	return false
}

// Objects decodes the "objects" field of a FIND_OBJECTS_BY_NAME response.
func (r Response) Objects() []any {
	objects, _ := r["objects"].([]any)

	return objects
}

// Bool returns the boolean stored under key, or false when absent.
func (r Response) Bool(key string) bool {
	b, _ := r[key].(bool)

	return b
}
