package tools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hkaya/unity_mcp_bridge/internal/asset"
	"github.com/hkaya/unity_mcp_bridge/internal/unity"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const defaultBatchFolder = "Assets/ImportedAssets"

func (h *Handler) registerAssetTools(s *server.MCPServer) {
	s.AddTool(
		mcp.NewTool("import_asset",
			mcp.WithDescription("Import an asset (3D model, texture, ...) from a local file into the Unity project"),
			mcp.WithString("source_path", mcp.Description("Path to the source file on disk"), mcp.Required()),
			mcp.WithString("target_path", mcp.Description("Path where the asset should be imported, relative to the Assets folder"), mcp.Required()),
			mcp.WithBoolean("overwrite", mcp.Description("Whether to overwrite an existing asset at the target path"), mcp.DefaultBool(false)),
		),
		h.instrument("import_asset", h.importAsset),
	)

	s.AddTool(
		mcp.NewTool("instantiate_prefab",
			mcp.WithDescription("Instantiate a prefab into the current scene at a given position and rotation"),
			mcp.WithString("prefab_path", mcp.Description("Path to the prefab asset, relative to the Assets folder"), mcp.Required()),
			mcp.WithNumber("position_x", mcp.Description("X position in world space"), mcp.DefaultNumber(0)),
			mcp.WithNumber("position_y", mcp.Description("Y position in world space"), mcp.DefaultNumber(0)),
			mcp.WithNumber("position_z", mcp.Description("Z position in world space"), mcp.DefaultNumber(0)),
			mcp.WithNumber("rotation_x", mcp.Description("X rotation in degrees"), mcp.DefaultNumber(0)),
			mcp.WithNumber("rotation_y", mcp.Description("Y rotation in degrees"), mcp.DefaultNumber(0)),
			mcp.WithNumber("rotation_z", mcp.Description("Z rotation in degrees"), mcp.DefaultNumber(0)),
		),
		h.instrument("instantiate_prefab", h.instantiatePrefab),
	)

	s.AddTool(
		mcp.NewTool("create_prefab",
			mcp.WithDescription("Create a new prefab asset from a GameObject in the scene"),
			mcp.WithString("object_name", mcp.Description("Name of the GameObject in the scene"), mcp.Required()),
			mcp.WithString("prefab_path", mcp.Description("Path where the prefab should be saved, relative to the Assets folder"), mcp.Required()),
			mcp.WithBoolean("overwrite", mcp.Description("Whether to overwrite an existing prefab at the path"), mcp.DefaultBool(false)),
		),
		h.instrument("create_prefab", h.createPrefab),
	)

	s.AddTool(
		mcp.NewTool("apply_prefab",
			mcp.WithDescription("Apply changes made to a prefab instance back to the original prefab asset"),
			mcp.WithString("object_name", mcp.Description("Name of the prefab instance in the scene"), mcp.Required()),
		),
		h.instrument("apply_prefab", h.applyPrefab),
	)

	s.AddTool(
		mcp.NewTool("import_remote_asset",
			mcp.WithDescription("Download an asset from a URL and import it into the Unity project"),
			mcp.WithString("url", mcp.Description("URL of the resource to download"), mcp.Required()),
			mcp.WithString("target_path", mcp.Description("Path where the asset should be imported, relative to the Assets folder"), mcp.Required()),
			mcp.WithBoolean("overwrite", mcp.Description("Whether to overwrite an existing asset at the target path"), mcp.DefaultBool(false)),
			mcp.WithBoolean("use_temp_storage", mcp.Description("Download into an ephemeral directory deleted after the import"), mcp.DefaultBool(true)),
		),
		h.instrument("import_remote_asset", h.importRemoteAsset),
	)

	s.AddTool(
		mcp.NewTool("batch_import_remote_assets",
			mcp.WithDescription("Download and import multiple assets from a list of URLs"),
			mcp.WithArray("urls", mcp.Description("URLs of the resources to download"), mcp.Required(), mcp.Items(map[string]any{"type": "string"})),
			mcp.WithString("target_folder", mcp.Description("Target folder for the imported assets"), mcp.DefaultString(defaultBatchFolder)),
			mcp.WithBoolean("overwrite", mcp.Description("Whether to overwrite existing assets"), mcp.DefaultBool(false)),
		),
		h.instrument("batch_import_remote_assets", h.batchImportRemoteAssets),
	)
}

func (h *Handler) importAsset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sourcePath, err := req.RequireString("source_path")
	if err != nil || sourcePath == "" {
		return mcp.NewToolResultError("Error importing asset: source_path must be a non-empty string"), nil
	}

	targetPath, err := req.RequireString("target_path")
	if err != nil || targetPath == "" {
		return mcp.NewToolResultError("Error importing asset: target_path must be a non-empty string"), nil
	}

	overwrite := req.GetBool("overwrite", false)

	if _, err := os.Stat(sourcePath); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error importing asset: source file '%s' does not exist", sourcePath)), nil
	}

	targetDir, targetFilename := splitPath(targetPath)

	listing, err := h.sender.SendCommand(ctx, unity.CmdGetAssetList, unity.Params{
		"search_pattern": targetFilename,
		"folder":         targetDir,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error importing asset: %v (Source: %s, Target: %s)", err, sourcePath, targetPath)), nil
	}

	if listing.HasAssetAt(targetPath) && !overwrite {
		return mcp.NewToolResultText(fmt.Sprintf("Asset already exists at '%s'. Use overwrite=true to replace it.", targetPath)), nil
	}

	response, err := h.sender.SendCommand(ctx, unity.CmdImportAsset, unity.Params{
		"source_path": sourcePath,
		"target_path": targetPath,
		"overwrite":   overwrite,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error importing asset: %v (Source: %s, Target: %s)", err, sourcePath, targetPath)), nil
	}

	if !response.OK() {
		return mcp.NewToolResultError(fmt.Sprintf("Error importing asset: %s (Source: %s, Target: %s)", response.ErrorMessage(), sourcePath, targetPath)), nil
	}

	return mcp.NewToolResultText(response.Message("Asset imported successfully")), nil
}

func (h *Handler) instantiatePrefab(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prefabPath, err := req.RequireString("prefab_path")
	if err != nil || prefabPath == "" {
		return mcp.NewToolResultError("Error instantiating prefab: prefab_path must be a non-empty string"), nil
	}

	prefabPath = ensurePrefabExtension(prefabPath)

	prefabDir, prefabName := splitPath(prefabPath)

	listing, err := h.sender.SendCommand(ctx, unity.CmdGetAssetList, unity.Params{
		"type":           "Prefab",
		"search_pattern": prefabName,
		"folder":         prefabDir,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error instantiating prefab: %v (Path: %s)", err, prefabPath)), nil
	}

	if !listing.HasAssetAt(prefabPath) {
		return mcp.NewToolResultText(fmt.Sprintf("Prefab '%s' not found in the project.", prefabPath)), nil
	}

	response, err := h.sender.SendCommand(ctx, unity.CmdInstantiatePrefab, unity.Params{
		"prefab_path": prefabPath,
		"position_x":  req.GetFloat("position_x", 0),
		"position_y":  req.GetFloat("position_y", 0),
		"position_z":  req.GetFloat("position_z", 0),
		"rotation_x":  req.GetFloat("rotation_x", 0),
		"rotation_y":  req.GetFloat("rotation_y", 0),
		"rotation_z":  req.GetFloat("rotation_z", 0),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error instantiating prefab: %v (Path: %s)", err, prefabPath)), nil
	}

	if !response.OK() {
		return mcp.NewToolResultError(fmt.Sprintf("Error instantiating prefab: %s (Path: %s)", response.ErrorMessage(), prefabPath)), nil
	}

	instanceName := response.Str("instance_name")
	if instanceName == "" {
		instanceName = "unknown"
	}

	return mcp.NewToolResultText(fmt.Sprintf("Prefab instantiated successfully as '%s'", instanceName)), nil
}

func (h *Handler) createPrefab(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	objectName, err := req.RequireString("object_name")
	if err != nil || objectName == "" {
		return mcp.NewToolResultError("Error creating prefab: object_name must be a non-empty string"), nil
	}

	prefabPath, err := req.RequireString("prefab_path")
	if err != nil || prefabPath == "" {
		return mcp.NewToolResultError("Error creating prefab: prefab_path must be a non-empty string"), nil
	}

	overwrite := req.GetBool("overwrite", false)

	found, err := h.sender.SendCommand(ctx, unity.CmdFindObjectsByName, unity.Params{"name": objectName})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error creating prefab: %v (Object: %s, Path: %s)", err, objectName, prefabPath)), nil
	}

	if len(found.Objects()) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("GameObject '%s' not found in the scene.", objectName)), nil
	}

	prefabPath = ensurePrefabExtension(prefabPath)

	prefabDir, prefabName := splitPath(prefabPath)

	listing, err := h.sender.SendCommand(ctx, unity.CmdGetAssetList, unity.Params{
		"type":           "Prefab",
		"search_pattern": prefabName,
		"folder":         prefabDir,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error creating prefab: %v (Object: %s, Path: %s)", err, objectName, prefabPath)), nil
	}

	if listing.HasAssetAt(prefabPath) && !overwrite {
		return mcp.NewToolResultText(fmt.Sprintf("Prefab already exists at '%s'. Use overwrite=true to replace it.", prefabPath)), nil
	}

	response, err := h.sender.SendCommand(ctx, unity.CmdCreatePrefab, unity.Params{
		"object_name": objectName,
		"prefab_path": prefabPath,
		"overwrite":   overwrite,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error creating prefab: %v (Object: %s, Path: %s)", err, objectName, prefabPath)), nil
	}

	if !response.OK() {
		return mcp.NewToolResultError(fmt.Sprintf("Error creating prefab: %s (Object: %s, Path: %s)", response.ErrorMessage(), objectName, prefabPath)), nil
	}

	savedPath := response.Str("path")
	if savedPath == "" {
		savedPath = prefabPath
	}

	return mcp.NewToolResultText(fmt.Sprintf("Prefab created successfully at %s", savedPath)), nil
}

func (h *Handler) applyPrefab(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	objectName, err := req.RequireString("object_name")
	if err != nil || objectName == "" {
		return mcp.NewToolResultError("Error applying prefab changes: object_name must be a non-empty string"), nil
	}

	found, err := h.sender.SendCommand(ctx, unity.CmdFindObjectsByName, unity.Params{"name": objectName})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error applying prefab changes: %v", err)), nil
	}

	if len(found.Objects()) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("GameObject '%s' not found in the scene.", objectName)), nil
	}

	properties, err := h.sender.SendCommand(ctx, unity.CmdGetObjectProperties, unity.Params{"name": objectName})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error applying prefab changes: %v", err)), nil
	}

	if !properties.Bool("isPrefabInstance") {
		return mcp.NewToolResultText(fmt.Sprintf("GameObject '%s' is not a prefab instance.", objectName)), nil
	}

	response, err := h.sender.SendCommand(ctx, unity.CmdApplyPrefab, unity.Params{"object_name": objectName})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error applying prefab changes: %v", err)), nil
	}

	return mcp.NewToolResultText(response.Message("Prefab changes applied successfully")), nil
}

func (h *Handler) importRemoteAsset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("Error importing remote asset: url must be a non-empty string"), nil
	}

	targetPath, err := req.RequireString("target_path")
	if err != nil {
		return mcp.NewToolResultError("Error importing remote asset: target_path must be a non-empty string"), nil
	}

	result := h.importer.ImportRemote(ctx, asset.ImportRequest{
		URL:            url,
		TargetPath:     targetPath,
		Overwrite:      req.GetBool("overwrite", false),
		UseTempStorage: req.GetBool("use_temp_storage", true),
	})

	if result.Kind.Failed() {
		return mcp.NewToolResultError(result.Message), nil
	}

	return mcp.NewToolResultText(result.Message), nil
}

func (h *Handler) batchImportRemoteAssets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	urls, ok := stringSlice(req.GetArguments(), "urls")
	if !ok {
		return mcp.NewToolResultError("Error importing remote assets: urls must be a list of strings"), nil
	}

	targetFolder := req.GetString("target_folder", defaultBatchFolder)
	overwrite := req.GetBool("overwrite", false)

	results := h.importer.BatchImportRemote(ctx, urls, targetFolder, overwrite)

	return mcp.NewToolResultText(asset.FormatBatch(urls, results)), nil
}

// splitPath splits an asset path into folder and filename, defaulting the
// folder to the asset root for top-level paths.
func splitPath(path string) (dir, filename string) {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return "Assets", path
	}

	dir = path[:idx]
	if dir == "" {
		dir = "Assets"
	}

	return dir, path[idx+1:]
}

func ensurePrefabExtension(path string) string {
	if strings.HasSuffix(strings.ToLower(path), ".prefab") {
		return path
	}

	return path + ".prefab"
}
