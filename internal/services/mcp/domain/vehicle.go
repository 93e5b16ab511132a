package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/openrechev/openrechev/internal/datagov"
)

// Registry dataset field names. The upstream schema is Hebrew-keyed;
// these are the only fields the tools filter on.
const (
	fieldLicensePlate = "mispar_rechev"
	fieldManufacturer = "tozeret_nm"
	fieldModel        = "degem_nm"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100
)

// RegistryClient is the slice of the upstream datastore API used by the
// vehicle tools and resources.
type RegistryClient interface {
	DatastoreSearch(ctx context.Context, query datagov.SearchQuery) (*datagov.SearchResult, error)
}

// VehicleLookupInput represents the MCP tool input for a plate lookup.
type VehicleLookupInput struct {
	LicensePlate string `json:"license_plate" jsonschema:"license plate number to look up"`
}

// VehicleLookupResult represents the MCP tool output for a plate lookup.
type VehicleLookupResult struct {
	Found   bool           `json:"found" jsonschema:"whether a registration record matched the plate"`
	Vehicle datagov.Record `json:"vehicle" jsonschema:"matched registration record, null when no match"`
	Error   string         `json:"error,omitempty" jsonschema:"upstream failure description, empty on success"`
}

// VehicleSearchInput represents the MCP tool input for a registry search.
type VehicleSearchInput struct {
	Manufacturer string `json:"manufacturer,omitempty" jsonschema:"manufacturer name as stored in the registry"`
	Model        string `json:"model,omitempty" jsonschema:"model name as stored in the registry"`
	LicensePlate string `json:"license_plate,omitempty" jsonschema:"license plate number"`
	Limit        int    `json:"limit,omitempty" jsonschema:"page size, defaults to 10, capped at 100"`
	Offset       int    `json:"offset,omitempty" jsonschema:"records to skip for pagination"`
}

// VehicleSearchResult represents the MCP tool output for a registry search.
type VehicleSearchResult struct {
	Records  []datagov.Record `json:"records" jsonschema:"matched registration records"`
	Total    int              `json:"total" jsonschema:"total matches across all pages"`
	Returned int              `json:"returned" jsonschema:"number of records in this page"`
	Error    string           `json:"error,omitempty" jsonschema:"upstream failure description, empty on success"`
}

// VehicleLookupTool defines the MCP tool schema for plate lookups.
func VehicleLookupTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_vehicle",
		Description: "Fetches the registration record for a license plate",
	}
}

// VehicleSearchTool defines the MCP tool schema for registry searches.
func VehicleSearchTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_vehicles",
		Description: "Searches vehicle registrations by manufacturer, model, or plate",
	}
}

// buildLookupQuery translates a plate lookup into an upstream query.
// The plate is required but its format is not validated; the registry
// is authoritative for what constitutes a known plate.
func buildLookupQuery(licensePlate string) (datagov.SearchQuery, error) {
	plate := strings.TrimSpace(licensePlate)
	if plate == "" {
		return datagov.SearchQuery{}, fmt.Errorf("license plate is required")
	}
	return datagov.SearchQuery{
		Filters: map[string]any{fieldLicensePlate: plate},
		Limit:   1,
	}, nil
}

// buildSearchQuery translates search criteria into an upstream query.
// Absent criteria are omitted from the filter mapping entirely, and a
// query with no criteria is a valid unfiltered first page. Filter
// values are single-element lists, which the upstream reads as
// membership tests.
func buildSearchQuery(manufacturer, model, licensePlate string, limit, offset int) (datagov.SearchQuery, error) {
	if limit < 0 {
		return datagov.SearchQuery{}, fmt.Errorf("limit must not be negative")
	}
	if offset < 0 {
		return datagov.SearchQuery{}, fmt.Errorf("offset must not be negative")
	}
	if limit == 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	filters := make(map[string]any)
	if v := strings.TrimSpace(manufacturer); v != "" {
		filters[fieldManufacturer] = []string{v}
	}
	if v := strings.TrimSpace(model); v != "" {
		filters[fieldModel] = []string{v}
	}
	if v := strings.TrimSpace(licensePlate); v != "" {
		filters[fieldLicensePlate] = []string{v}
	}
	if len(filters) == 0 {
		filters = nil
	}

	return datagov.SearchQuery{Filters: filters, Limit: limit, Offset: offset}, nil
}

// normalizeLookup folds a datastore response into the lookup result
// shape. Upstream failures become the in-band error form; an empty
// record set is a successful "not found", never a failure.
func normalizeLookup(result *datagov.SearchResult, err error) VehicleLookupResult {
	if err != nil {
		return VehicleLookupResult{Error: err.Error()}
	}
	if result == nil || len(result.Records) == 0 {
		return VehicleLookupResult{Found: false}
	}
	return VehicleLookupResult{Found: true, Vehicle: result.Records[0]}
}

// normalizeSearch folds a datastore response into the search result
// shape. When the envelope omitted the total match count, the page
// length stands in for it.
func normalizeSearch(result *datagov.SearchResult, err error) VehicleSearchResult {
	if err != nil {
		return VehicleSearchResult{Error: err.Error()}
	}
	if result == nil {
		return VehicleSearchResult{Records: []datagov.Record{}}
	}
	records := result.Records
	if records == nil {
		records = []datagov.Record{}
	}
	total := len(records)
	if result.Total != nil {
		total = *result.Total
	}
	return VehicleSearchResult{Records: records, Total: total, Returned: len(records)}
}
