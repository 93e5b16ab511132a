package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const vehicleURIPrefix = "vehicles://"

// VehicleResourceTemplate defines the MCP resource template for
// registration records.
func VehicleResourceTemplate() *mcp.ResourceTemplate {
	return &mcp.ResourceTemplate{
		Name:        "vehicle_registration",
		Title:       "Vehicle Registration",
		Description: "Readable registration record for a license plate. URI format: vehicles://{license_plate}",
		MIMEType:    "application/json",
		URITemplate: "vehicles://{license_plate}",
	}
}

// VehicleResourceHandler returns a readable registration record
// resource. Resources have no in-band failure channel, so an unknown
// plate or an upstream failure is a read error.
func VehicleResourceHandler(client RegistryClient) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if client == nil {
			return nil, fmt.Errorf("registry client is not configured")
		}

		if req == nil || req.Params == nil || req.Params.URI == "" {
			return nil, fmt.Errorf("license plate is required; use URI format vehicles://{license_plate}")
		}
		uri := req.Params.URI

		plate, err := parseLicensePlateFromVehicleURI(uri)
		if err != nil {
			return nil, fmt.Errorf("parse license plate from URI: %w", err)
		}

		query, err := buildLookupQuery(plate)
		if err != nil {
			return nil, err
		}

		callCtx, cancel := context.WithTimeout(ctx, upstreamCallTimeout)
		defer cancel()

		result, err := client.DatastoreSearch(callCtx, query)
		if err != nil {
			return nil, fmt.Errorf("vehicle lookup failed: %w", err)
		}
		if result == nil || len(result.Records) == 0 {
			return nil, fmt.Errorf("vehicle not found")
		}

		payload, err := json.MarshalIndent(result.Records[0], "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode vehicle record: %w", err)
		}

		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "application/json",
					Text:     string(payload),
				},
			},
		}, nil
	}
}

// parseLicensePlateFromVehicleURI extracts the plate from a URI of the
// form vehicles://{license_plate}. It rejects URIs with additional path
// segments, query parameters, or fragments.
func parseLicensePlateFromVehicleURI(uri string) (string, error) {
	if !strings.HasPrefix(uri, vehicleURIPrefix) {
		return "", fmt.Errorf("URI must start with %q", vehicleURIPrefix)
	}

	plate := strings.TrimSpace(strings.TrimPrefix(uri, vehicleURIPrefix))
	if plate == "" {
		return "", fmt.Errorf("license plate is required in URI")
	}
	if strings.ContainsAny(plate, "/?#") {
		return "", fmt.Errorf("URI must not contain path segments, query parameters, or fragments after the plate")
	}

	return plate, nil
}
