package service

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/openrechev/openrechev/internal/services/mcp/domain"
)

type mcpRegistrationTarget interface {
	AddTool(*mcp.Tool, any) error
	AddResourceTemplate(*mcp.ResourceTemplate, mcp.ResourceHandler)
	AddResource(*mcp.Resource, mcp.ResourceHandler)
}

func registerVehicleTools(registrar mcpRegistrationTarget, client domain.RegistryClient) error {
	if err := registerTool(registrar, domain.VehicleLookupTool(), domain.VehicleLookupHandler(client)); err != nil {
		return err
	}
	return registerTool(registrar, domain.VehicleSearchTool(), domain.VehicleSearchHandler(client))
}

func registerDatasetTools(registrar mcpRegistrationTarget, client domain.CatalogClient, resourceID string) error {
	if err := registerTool(registrar, domain.DatasetLicensesTool(), domain.DatasetLicensesHandler(client)); err != nil {
		return err
	}
	return registerTool(registrar, domain.DatasetLicenseTool(), domain.DatasetLicenseHandler(client, resourceID))
}

func registerTool(registrar mcpRegistrationTarget, tool *mcp.Tool, handler any) error {
	if tool == nil {
		return fmt.Errorf("tool is nil")
	}
	return registrar.AddTool(tool, handler)
}

// registerVehicleResources registers readable vehicle registration MCP resources.
func registerVehicleResources(registrar mcpRegistrationTarget, client domain.RegistryClient) {
	registrar.AddResourceTemplate(domain.VehicleResourceTemplate(), domain.VehicleResourceHandler(client))
}
