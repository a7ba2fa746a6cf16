package tools

import (
	"context"
	"fmt"

	"github.com/hkaya/unity_mcp_bridge/internal/unity"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const defaultMaterialFolder = "Assets/Materials"

func (h *Handler) registerMaterialTools(s *server.MCPServer) {
	s.AddTool(
		mcp.NewTool("set_material",
			mcp.WithDescription("Apply or create a material for a GameObject; a named material is saved as a shared asset"),
			mcp.WithString("object_name", mcp.Description("Target GameObject name"), mcp.Required()),
			mcp.WithString("material_name", mcp.Description("Optional material name; when given, a shared material asset is created or reused")),
			mcp.WithArray("color", mcp.Description("[R, G, B] or [R, G, B, A] values in the 0.0-1.0 range"), mcp.Items(map[string]any{"type": "number"})),
			mcp.WithBoolean("create_if_missing", mcp.Description("Create the material if it doesn't exist"), mcp.DefaultBool(true)),
		),
		h.instrument("set_material", h.setMaterial),
	)

	s.AddTool(
		mcp.NewTool("create_advanced_material",
			mcp.WithDescription("Create a material with specific shader settings"),
			mcp.WithString("material_name", mcp.Description("Material name"), mcp.Required()),
			mcp.WithString("shader_type", mcp.Description("Shader to use (Standard, Transparent, Unlit, ...)"), mcp.DefaultString("Standard")),
			mcp.WithString("render_mode", mcp.Description("Render mode (Opaque, Transparent, Cutout)"), mcp.DefaultString("Opaque")),
			mcp.WithString("save_path", mcp.Description("Folder to save the material in"), mcp.DefaultString(defaultMaterialFolder)),
			mcp.WithBoolean("create_if_missing", mcp.Description("Create the material if it doesn't exist"), mcp.DefaultBool(true)),
		),
		h.instrument("create_advanced_material", h.createAdvancedMaterial),
	)

	s.AddTool(
		mcp.NewTool("set_material_properties",
			mcp.WithDescription("Set physical properties of a material"),
			mcp.WithString("material_path", mcp.Description("Path to the material"), mcp.Required()),
			mcp.WithArray("color", mcp.Description("[R, G, B] or [R, G, B, A] values in the 0.0-1.0 range"), mcp.Items(map[string]any{"type": "number"})),
			mcp.WithNumber("metallic", mcp.Description("Metallic value (0.0-1.0)")),
			mcp.WithNumber("smoothness", mcp.Description("Smoothness/glossiness value (0.0-1.0)")),
			mcp.WithNumber("normal_scale", mcp.Description("Normal map intensity")),
			mcp.WithNumber("occlusion_strength", mcp.Description("Ambient occlusion strength (0.0-1.0)")),
			mcp.WithNumber("height_scale", mcp.Description("Height/parallax map scale")),
			mcp.WithArray("emission_color", mcp.Description("[R, G, B] emission color values (0.0-1.0)"), mcp.Items(map[string]any{"type": "number"})),
			mcp.WithNumber("emission_intensity", mcp.Description("Emission intensity multiplier")),
		),
		h.instrument("set_material_properties", h.setMaterialProperties),
	)

	s.AddTool(
		mcp.NewTool("set_material_texture",
			mcp.WithDescription("Set a texture on a material"),
			mcp.WithString("material_path", mcp.Description("Path to the material"), mcp.Required()),
			mcp.WithString("texture_type", mcp.Description("Texture slot (albedo, normal, metallic, ...)"), mcp.Required()),
			mcp.WithString("texture_path", mcp.Description("Path to the texture"), mcp.Required()),
			mcp.WithArray("tiling", mcp.Description("[x, y] tiling values"), mcp.Items(map[string]any{"type": "number"})),
			mcp.WithArray("offset", mcp.Description("[x, y] offset values"), mcp.Items(map[string]any{"type": "number"})),
		),
		h.instrument("set_material_texture", h.setMaterialTexture),
	)

	s.AddTool(
		mcp.NewTool("create_material_from_template",
			mcp.WithDescription("Create a material based on a predefined template"),
			mcp.WithString("material_name", mcp.Description("Name for the new material"), mcp.Required()),
			mcp.WithString("template", mcp.Description("Template to use (metal, plastic, wood, glass, emissive, fabric, skin)"), mcp.Required()),
			mcp.WithString("save_path", mcp.Description("Folder to save the material in"), mcp.DefaultString(defaultMaterialFolder)),
		),
		h.instrument("create_material_from_template", h.createMaterialFromTemplate),
	)
}

func (h *Handler) setMaterial(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	objectName, err := req.RequireString("object_name")
	if err != nil || objectName == "" {
		return mcp.NewToolResultError("Error setting material: object_name must be a non-empty string"), nil
	}

	materialName := req.GetString("material_name", "")
	createIfMissing := req.GetBool("create_if_missing", true)

	found, err := h.sender.SendCommand(ctx, unity.CmdFindObjectsByName, unity.Params{"name": objectName})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error setting material: %v", err)), nil
	}

	if len(found.Objects()) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("GameObject '%s' not found in the scene.", objectName)), nil
	}

	if materialName != "" {
		listing, err := h.sender.SendCommand(ctx, unity.CmdGetAssetList, unity.Params{
			"type":           "Material",
			"search_pattern": materialName,
			"folder":         defaultMaterialFolder,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error setting material: %v", err)), nil
		}

		materialExists := false

		for _, entry := range listing.Assets() {
			if entry.Name == materialName {
				materialExists = true

				break
			}
		}

		if !materialExists && !createIfMissing {
			return mcp.NewToolResultText(fmt.Sprintf("Material '%s' not found. Use create_if_missing=true to create it.", materialName)), nil
		}
	}

	params := unity.Params{
		"object_name":       objectName,
		"create_if_missing": createIfMissing,
	}

	if materialName != "" {
		params["material_name"] = materialName
	}

	if color, ok := floatSlice(req.GetArguments(), "color"); ok {
		if err := validateColor(color); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error setting material: %v", err)), nil
		}

		params["color"] = color
	}

	response, err := h.sender.SendCommand(ctx, unity.CmdSetMaterial, params)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error setting material: %v", err)), nil
	}

	appliedName := response.Str("material_name")
	if appliedName == "" {
		appliedName = "unknown"
	}

	if materialPath := response.Str("path"); materialPath != "" {
		return mcp.NewToolResultText(fmt.Sprintf("Applied shared material '%s' to %s (saved at %s)", appliedName, objectName, materialPath)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Applied instance material '%s' to %s", appliedName, objectName)), nil
}

func (h *Handler) createAdvancedMaterial(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	materialName, err := req.RequireString("material_name")
	if err != nil || materialName == "" {
		return mcp.NewToolResultError("Error creating material: material_name must be a non-empty string"), nil
	}

	response, err := h.sender.SendCommand(ctx, unity.CmdCreateAdvancedMaterial, unity.Params{
		"material_name":     materialName,
		"shader_type":       req.GetString("shader_type", "Standard"),
		"render_mode":       req.GetString("render_mode", "Opaque"),
		"save_path":         req.GetString("save_path", defaultMaterialFolder),
		"create_if_missing": req.GetBool("create_if_missing", true),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error creating material: %v", err)), nil
	}

	return mcp.NewToolResultText(response.Message("Material created successfully")), nil
}

func (h *Handler) setMaterialProperties(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	materialPath, err := req.RequireString("material_path")
	if err != nil || materialPath == "" {
		return mcp.NewToolResultError("Error setting material properties: material_path must be a non-empty string"), nil
	}

	args := req.GetArguments()
	params := unity.Params{"material_path": materialPath}

	for _, key := range []string{"metallic", "smoothness", "normal_scale", "occlusion_strength", "height_scale", "emission_intensity"} {
		if value, ok := floatValue(args, key); ok {
			params[key] = value
		}
	}

	for _, key := range []string{"color", "emission_color"} {
		if values, ok := floatSlice(args, key); ok {
			params[key] = values
		}
	}

	response, err := h.sender.SendCommand(ctx, unity.CmdSetMaterialProperties, params)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error setting material properties: %v", err)), nil
	}

	return mcp.NewToolResultText(response.Message("Material properties updated successfully")), nil
}

func (h *Handler) setMaterialTexture(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	materialPath, err := req.RequireString("material_path")
	if err != nil || materialPath == "" {
		return mcp.NewToolResultError("Error setting material texture: material_path must be a non-empty string"), nil
	}

	textureType, err := req.RequireString("texture_type")
	if err != nil || textureType == "" {
		return mcp.NewToolResultError("Error setting material texture: texture_type must be a non-empty string"), nil
	}

	texturePath, err := req.RequireString("texture_path")
	if err != nil || texturePath == "" {
		return mcp.NewToolResultError("Error setting material texture: texture_path must be a non-empty string"), nil
	}

	args := req.GetArguments()
	params := unity.Params{
		"material_path": materialPath,
		"texture_type":  textureType,
		"texture_path":  texturePath,
	}

	for _, key := range []string{"tiling", "offset"} {
		if values, ok := floatSlice(args, key); ok {
			params[key] = values
		}
	}

	response, err := h.sender.SendCommand(ctx, unity.CmdSetMaterialTexture, params)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error setting material texture: %v", err)), nil
	}

	return mcp.NewToolResultText(response.Message("Material texture set successfully")), nil
}

func (h *Handler) createMaterialFromTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	materialName, err := req.RequireString("material_name")
	if err != nil || materialName == "" {
		return mcp.NewToolResultError("Error creating material from template: material_name must be a non-empty string"), nil
	}

	template, err := req.RequireString("template")
	if err != nil || template == "" {
		return mcp.NewToolResultError("Error creating material from template: template must be a non-empty string"), nil
	}

	response, err := h.sender.SendCommand(ctx, unity.CmdCreateMaterialFromTemplate, unity.Params{
		"material_name": materialName,
		"template":      template,
		"save_path":     req.GetString("save_path", defaultMaterialFolder),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error creating material from template: %v", err)), nil
	}

	return mcp.NewToolResultText(response.Message("Material created successfully")), nil
}
