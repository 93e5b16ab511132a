package domain

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// VehicleLookupHandler fetches the registration record for one plate.
// Invalid input is a tool error; upstream failures surface in-band in
// the result so clients always receive the same shape.
func VehicleLookupHandler(client RegistryClient) mcp.ToolHandlerFor[VehicleLookupInput, VehicleLookupResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input VehicleLookupInput) (*mcp.CallToolResult, VehicleLookupResult, error) {
		query, err := buildLookupQuery(input.LicensePlate)
		if err != nil {
			return nil, VehicleLookupResult{}, err
		}

		callCtx, cancel := context.WithTimeout(ctx, upstreamCallTimeout)
		defer cancel()

		result, searchErr := client.DatastoreSearch(callCtx, query)
		return nil, normalizeLookup(result, searchErr), nil
	}
}

// VehicleSearchHandler searches the registry by manufacturer, model,
// or plate. Pagination errors are tool errors; upstream failures
// surface in-band in the result.
func VehicleSearchHandler(client RegistryClient) mcp.ToolHandlerFor[VehicleSearchInput, VehicleSearchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input VehicleSearchInput) (*mcp.CallToolResult, VehicleSearchResult, error) {
		query, err := buildSearchQuery(input.Manufacturer, input.Model, input.LicensePlate, input.Limit, input.Offset)
		if err != nil {
			return nil, VehicleSearchResult{}, err
		}

		callCtx, cancel := context.WithTimeout(ctx, upstreamCallTimeout)
		defer cancel()

		result, searchErr := client.DatastoreSearch(callCtx, query)
		return nil, normalizeSearch(result, searchErr), nil
	}
}
