package api

import (
	"net/http"

	"github.com/emprendecr/emprende/internal/shell/api/openapi"
)

var listQueryParams = []openapi.QueryParam{
	{Name: "category_id", Repeatable: true},
	{Name: "provincia", Repeatable: true},
	{Name: "canton", Repeatable: true, Description: "Applied literally, even without provincia"},
	{Name: "search", Description: "Case and accent insensitive name or description match"},
	{Name: "min_price", Type: "number"},
	{Name: "max_price", Type: "number"},
	{Name: "sort_by", Enum: []string{"random", "popularity", "newest"}},
	{Name: "page", Type: "integer", Description: "1-based page number"},
	{Name: "limit", Type: "integer", Description: "Page size, at most 100"},
}

var serviceQueryParams = append(append([]openapi.QueryParam(nil), listQueryParams...),
	openapi.QueryParam{Name: "min_duration", Type: "integer"},
	openapi.QueryParam{Name: "max_duration", Type: "integer"},
)

// newDocument registers every route of the API with the generator.
func newDocument(baseURL string) *openapi.Generator {
	g := openapi.NewGenerator(openapi.WithServer(baseURL))

	g.RegisterResource(openapi.ResourceInfo{
		Name:           "businesses",
		Singular:       "Business",
		Model:          BusinessResponse{},
		Request:        BusinessRequest{},
		SupportsList:   true,
		SupportsGet:    true,
		SupportsCreate: true,
		SupportsUpdate: true,
		SupportsDelete: true,
		ListParams:     listQueryParams,
	})
	g.RegisterResource(openapi.ResourceInfo{
		Name:           "products",
		Singular:       "Product",
		Model:          ProductResponse{},
		Request:        ProductRequest{},
		SupportsList:   true,
		SupportsGet:    true,
		SupportsCreate: true,
		SupportsUpdate: true,
		SupportsDelete: true,
		ListParams:     listQueryParams,
	})
	g.RegisterResource(openapi.ResourceInfo{
		Name:           "services",
		Singular:       "Service",
		Model:          ServiceResponse{},
		Request:        ServiceRequest{},
		SupportsList:   true,
		SupportsGet:    true,
		SupportsCreate: true,
		SupportsUpdate: true,
		SupportsDelete: true,
		ListParams:     serviceQueryParams,
	})

	routes := []openapi.RouteInfo{
		{Method: http.MethodGet, Path: "/api/v1/businesses/{slug}/products", ID: "listBusinessProducts",
			Summary: "List the products of a business", Tag: "Businesses", PathParam: "slug",
			Response: StorefrontResponse[ProductResponse]{}},
		{Method: http.MethodGet, Path: "/api/v1/businesses/{slug}/services", ID: "listBusinessServices",
			Summary: "List the services of a business", Tag: "Businesses", PathParam: "slug",
			Response: StorefrontResponse[ServiceResponse]{}},
		{Method: http.MethodGet, Path: "/api/v1/categories", ID: "listCategories",
			Summary: "List categories", Tag: "Categories", Response: CategoriesResponse{}},
		{Method: http.MethodPost, Path: "/api/v1/categories", ID: "createCategory",
			Summary: "Create a category", Tag: "Categories", Request: CategoryRequest{},
			Status: http.StatusCreated},
		{Method: http.MethodGet, Path: "/api/v1/locations", ID: "listLocations",
			Summary: "List provincias and cantones", Tag: "Locations", Response: LocationsResponse{}},
		{Method: http.MethodPost, Path: "/api/v1/contact-events", ID: "recordContactEvent",
			Summary: "Record a WhatsApp contact", Tag: "Analytics", Request: ContactEventRequest{},
			Response: ContactEventResponse{}, Status: http.StatusAccepted},
		{Method: http.MethodGet, Path: "/health", ID: "health", Summary: "Liveness", Tag: "Health",
			Response: HealthResponse{}},
		{Method: http.MethodGet, Path: "/ready", ID: "ready", Summary: "Readiness", Tag: "Health",
			Response: ReadyResponse{}},
	}
	for _, route := range routes {
		g.RegisterRoute(route)
	}
	return g
}
