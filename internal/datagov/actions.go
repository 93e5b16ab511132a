package datagov

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	actionDatastoreSearch = "datastore_search"
	actionLicenseList     = "license_list"
	actionResourceShow    = "resource_show"
	actionPackageShow     = "package_show"
)

// Record is one row of an upstream dataset, kept exactly as returned.
// The registry schema is not modeled here; fields pass through opaquely.
type Record map[string]any

// SearchQuery describes one datastore_search request. The dataset
// identifier is not part of the query; the client attaches its configured
// resource ID to every request.
type SearchQuery struct {
	// Filters maps dataset field names to required values. Values may be
	// scalars or lists; the upstream treats a list as a membership test.
	Filters map[string]any
	Limit   int
	Offset  int
}

// SearchResult is the decoded result of a datastore_search call.
type SearchResult struct {
	Records []Record
	// Total is the upstream match count across all pages. It is nil when
	// the envelope omitted the field, which callers treat differently
	// from an explicit zero.
	Total *int
}

// ResourceInfo is the slice of resource_show output needed to chain into
// package_show.
type ResourceInfo struct {
	PackageID string
}

// PackageInfo carries the licensing fields of a package_show response.
type PackageInfo struct {
	LicenseTitle string
	LicenseID    string
	LicenseURL   string
}

// DatastoreSearch queries the configured dataset. The filters mapping is
// sent JSON-encoded and omitted entirely when empty.
func (c *Client) DatastoreSearch(ctx context.Context, query SearchQuery) (*SearchResult, error) {
	params := url.Values{}
	params.Set("resource_id", c.resourceID)
	if len(query.Filters) > 0 {
		filters, err := json.Marshal(query.Filters)
		if err != nil {
			return nil, fmt.Errorf("%s: encode filters: %w", actionDatastoreSearch, err)
		}
		params.Set("filters", string(filters))
	}
	params.Set("limit", strconv.Itoa(query.Limit))
	params.Set("offset", strconv.Itoa(query.Offset))

	var result struct {
		Records []Record `json:"records"`
		Total   *int     `json:"total"`
	}
	if err := c.getAction(ctx, actionDatastoreSearch, params, &result); err != nil {
		return nil, err
	}
	return &SearchResult{Records: result.Records, Total: result.Total}, nil
}

// LicenseList returns the portal's license definitions. The envelope
// result for this action is a bare JSON array.
func (c *Client) LicenseList(ctx context.Context) ([]Record, error) {
	var result []Record
	if err := c.getAction(ctx, actionLicenseList, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ResourceShow fetches resource metadata, primarily the owning package ID.
func (c *Client) ResourceShow(ctx context.Context, id string) (*ResourceInfo, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%s: id is required", actionResourceShow)
	}
	params := url.Values{}
	params.Set("id", id)

	var result struct {
		PackageID string `json:"package_id"`
	}
	if err := c.getAction(ctx, actionResourceShow, params, &result); err != nil {
		return nil, err
	}
	return &ResourceInfo{PackageID: result.PackageID}, nil
}

// PackageShow fetches package metadata, reduced to its licensing fields.
func (c *Client) PackageShow(ctx context.Context, id string) (*PackageInfo, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%s: id is required", actionPackageShow)
	}
	params := url.Values{}
	params.Set("id", id)

	var result struct {
		LicenseTitle string `json:"license_title"`
		LicenseID    string `json:"license_id"`
		LicenseURL   string `json:"license_url"`
	}
	if err := c.getAction(ctx, actionPackageShow, params, &result); err != nil {
		return nil, err
	}
	return &PackageInfo{
		LicenseTitle: result.LicenseTitle,
		LicenseID:    result.LicenseID,
		LicenseURL:   result.LicenseURL,
	}, nil
}
