package domain

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/openrechev/openrechev/internal/datagov"
)

// CatalogClient is the slice of the portal catalog API used by the
// dataset tools.
type CatalogClient interface {
	LicenseList(ctx context.Context) ([]datagov.Record, error)
	ResourceShow(ctx context.Context, id string) (*datagov.ResourceInfo, error)
	PackageShow(ctx context.Context, id string) (*datagov.PackageInfo, error)
}

// DatasetLicensesInput represents the MCP tool input for listing portal
// licenses. The tool takes no parameters.
type DatasetLicensesInput struct{}

// DatasetLicensesResult represents the MCP tool output for listing
// portal licenses.
type DatasetLicensesResult struct {
	Licenses []datagov.Record `json:"licenses" jsonschema:"license definitions published by the portal"`
	Count    int              `json:"count" jsonschema:"number of license definitions"`
	Error    string           `json:"error,omitempty" jsonschema:"upstream failure description, empty on success"`
}

// DatasetLicenseInput represents the MCP tool input for resolving the
// vehicle dataset's license. The tool takes no parameters.
type DatasetLicenseInput struct{}

// DatasetLicenseResult represents the MCP tool output for the vehicle
// dataset's license.
type DatasetLicenseResult struct {
	PackageID    string `json:"package_id,omitempty" jsonschema:"package that owns the dataset resource"`
	ResourceID   string `json:"resource_id,omitempty" jsonschema:"dataset resource identifier"`
	LicenseTitle string `json:"license_title,omitempty" jsonschema:"human-readable license title"`
	LicenseID    string `json:"license_id,omitempty" jsonschema:"portal license identifier"`
	LicenseURL   string `json:"license_url,omitempty" jsonschema:"license text URL, when published"`
	Error        string `json:"error,omitempty" jsonschema:"failure description, empty on success"`
}

// DatasetLicensesTool defines the MCP tool schema for listing licenses.
func DatasetLicensesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_dataset_licenses",
		Description: "Lists the license definitions published by the data portal",
	}
}

// DatasetLicenseTool defines the MCP tool schema for the dataset
// license.
func DatasetLicenseTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_dataset_license",
		Description: "Resolves the license of the vehicle registration dataset",
	}
}

// DatasetLicensesHandler lists the portal's license definitions.
func DatasetLicensesHandler(client CatalogClient) mcp.ToolHandlerFor[DatasetLicensesInput, DatasetLicensesResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ DatasetLicensesInput) (*mcp.CallToolResult, DatasetLicensesResult, error) {
		callCtx, cancel := context.WithTimeout(ctx, upstreamCallTimeout)
		defer cancel()

		licenses, err := client.LicenseList(callCtx)
		if err != nil {
			return nil, DatasetLicensesResult{Error: err.Error()}, nil
		}
		return nil, DatasetLicensesResult{Licenses: licenses, Count: len(licenses)}, nil
	}
}

// DatasetLicenseHandler resolves the vehicle dataset's license by
// chaining resource metadata into its owning package. Every failure in
// the chain surfaces in-band.
func DatasetLicenseHandler(client CatalogClient, resourceID string) mcp.ToolHandlerFor[DatasetLicenseInput, DatasetLicenseResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ DatasetLicenseInput) (*mcp.CallToolResult, DatasetLicenseResult, error) {
		callCtx, cancel := context.WithTimeout(ctx, upstreamCallTimeout)
		defer cancel()

		resource, err := client.ResourceShow(callCtx, resourceID)
		if err != nil {
			return nil, DatasetLicenseResult{Error: err.Error()}, nil
		}
		if resource == nil || resource.PackageID == "" {
			return nil, DatasetLicenseResult{
				Error: fmt.Sprintf("could not determine package for resource %s", resourceID),
			}, nil
		}

		pkg, err := client.PackageShow(callCtx, resource.PackageID)
		if err != nil {
			return nil, DatasetLicenseResult{Error: err.Error()}, nil
		}
		if pkg == nil || (pkg.LicenseTitle == "" && pkg.LicenseID == "") {
			return nil, DatasetLicenseResult{
				Error: fmt.Sprintf("no license information found for package %s", resource.PackageID),
			}, nil
		}

		return nil, DatasetLicenseResult{
			PackageID:    resource.PackageID,
			ResourceID:   resourceID,
			LicenseTitle: pkg.LicenseTitle,
			LicenseID:    pkg.LicenseID,
			LicenseURL:   pkg.LicenseURL,
		}, nil
	}
}
