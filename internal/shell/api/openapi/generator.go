// Package openapi builds the OpenAPI 3.0 document of the marketplace API by
// reflecting on the request and response types of each registered resource.
package openapi

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
)

// =============================================================================
// Generator
// =============================================================================

// Generator produces OpenAPI 3.0 documents from registered resources.
type Generator struct {
	title       string
	version     string
	description string
	servers     []string
	resources   []ResourceInfo
	routes      []RouteInfo
	mu          sync.RWMutex
	cachedDoc  *openapi3.T
}

// ResourceInfo describes a collection served under /api/v1/{Name}.
type ResourceInfo struct {
	Name     string // Plural route segment (e.g., "products")
	Singular string // Schema name stem (e.g., "Product")
	Model    any    // Response struct
	Request  any    // Create/replace body; nil when the resource is read only

	SupportsList   bool // GET /{name}
	SupportsGet    bool // GET /{name}/{slug}
	SupportsCreate bool // POST /{name}
	SupportsUpdate bool // PUT /{name}/{slug}
	SupportsDelete bool // DELETE /{name}/{slug}

	// ListParams are the query parameters accepted by the list operation.
	ListParams []QueryParam
}

// QueryParam is a query string parameter.
type QueryParam struct {
	Name        string
	Type        string // "string", "integer" or "number"
	Repeatable  bool
	Description string
	Enum        []string
}

// RouteInfo describes a standalone operation.
type RouteInfo struct {
	Method    string
	Path      string
	ID        string
	Summary   string
	Tag       string
	Request   any
	Response  any
	Status    int
	PathParam string
}

// Option configures the generator.
type Option func(*Generator)

// WithTitle sets the API title.
func WithTitle(title string) Option {
	return func(g *Generator) {
		g.title = title
	}
}

// WithVersion sets the API version.
func WithVersion(version string) Option {
	return func(g *Generator) {
		g.version = version
	}
}

// WithDescription sets the API description.
func WithDescription(description string) Option {
	return func(g *Generator) {
		g.description = description
	}
}

// WithServer adds a server URL.
func WithServer(url string) Option {
	return func(g *Generator) {
		if url != "" {
			g.servers = append(g.servers, url)
		}
	}
}

// NewGenerator creates a new OpenAPI generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		title:       "Costa Rica Emprende API",
		version:     "1.0.0",
		description: "Marketplace of local businesses, products and services",
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RegisterResource adds a resource to the document.
func (g *Generator) RegisterResource(info ResourceInfo) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resources = append(g.resources, info)
	g.cachedDoc = nil
}

// RegisterRoute adds a standalone operation to the document.
func (g *Generator) RegisterRoute(info RouteInfo) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.routes = append(g.routes, info)
	g.cachedDoc = nil
}

// Generate produces the complete document. The result is cached until the
// next registration.
func (g *Generator) Generate() *openapi3.T {
	g.mu.RLock()
	if g.cachedDoc != nil {
		doc := g.cachedDoc
		g.mu.RUnlock()
		return doc
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()

	// Double-check after acquiring write lock
	if g.cachedDoc != nil {
		return g.cachedDoc
	}

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       g.title,
			Version:     g.version,
			Description: g.description,
		},
		Servers: make(openapi3.Servers, 0, len(g.servers)),
		Paths:   openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: make(openapi3.Schemas),
		},
	}
	for _, url := range g.servers {
		doc.Servers = append(doc.Servers, &openapi3.Server{URL: url})
	}

	g.addCommonSchemas(doc)
	for _, res := range g.resources {
		g.addResource(doc, res)
	}
	for _, route := range g.routes {
		g.addRoute(doc, route)
	}

	g.cachedDoc = doc
	return doc
}

// Handler serves the document as JSON.
func (g *Generator) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc := g.Generate()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(doc); err != nil {
			http.Error(w, "Failed to encode OpenAPI doc", http.StatusInternalServerError)
		}
	}
}

// =============================================================================
// Schema Generation
// =============================================================================

func (g *Generator) addCommonSchemas(doc *openapi3.T) {
	doc.Components.Schemas["Error"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"error": stringSchema(),
				"code":  stringSchema(),
			},
			Required: []string{"error", "code"},
		},
	}
}

func (g *Generator) addResource(doc *openapi3.T, res ResourceInfo) {
	basePath := "/api/v1/" + res.Name
	name := res.Singular

	doc.Components.Schemas[name] = g.extractSchema(res.Model)
	if res.Request != nil {
		doc.Components.Schemas[name+"Request"] = g.extractSchema(res.Request)
	}
	doc.Components.Schemas[name+"List"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"items": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type:  &openapi3.Types{"array"},
						Items: ref(name),
					},
				},
				"page":     intSchema(),
				"limit":    intSchema(),
				"has_more": {Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}},
			},
		},
	}

	collection := &openapi3.PathItem{}
	if res.SupportsList {
		collection.Get = &openapi3.Operation{
			OperationID: "list" + capitalize(res.Name),
			Summary:     "List " + res.Name,
			Tags:        []string{capitalize(res.Name)},
			Parameters:  queryParameters(res.ListParams),
			Responses:   responses(http.StatusOK, ref(name+"List")),
		}
	}
	if res.SupportsCreate {
		collection.Post = &openapi3.Operation{
			OperationID: "create" + name,
			Summary:     "Create a " + strings.ToLower(name),
			Tags:        []string{capitalize(res.Name)},
			RequestBody: requestBody(ref(name + "Request")),
			Responses:   responses(http.StatusCreated, ref(name)),
		}
	}
	doc.Paths.Set(basePath, collection)

	item := &openapi3.PathItem{Parameters: openapi3.Parameters{slugParameter()}}
	if res.SupportsGet {
		item.Get = &openapi3.Operation{
			OperationID: "get" + name,
			Summary:     "Get a " + strings.ToLower(name) + " by slug or id",
			Tags:        []string{capitalize(res.Name)},
			Responses:   responses(http.StatusOK, ref(name)),
		}
	}
	if res.SupportsUpdate {
		item.Put = &openapi3.Operation{
			OperationID: "replace" + name,
			Summary:     "Replace a " + strings.ToLower(name),
			Tags:        []string{capitalize(res.Name)},
			RequestBody: requestBody(ref(name + "Request")),
			Responses:   responses(http.StatusOK, ref(name)),
		}
	}
	if res.SupportsDelete {
		item.Delete = &openapi3.Operation{
			OperationID: "delete" + name,
			Summary:     "Delete a " + strings.ToLower(name),
			Tags:        []string{capitalize(res.Name)},
			Responses:   responses(http.StatusNoContent, nil),
		}
	}
	doc.Paths.Set(basePath+"/{slug}", item)
}

func (g *Generator) addRoute(doc *openapi3.T, route RouteInfo) {
	op := &openapi3.Operation{
		OperationID: route.ID,
		Summary:     route.Summary,
		Tags:        []string{route.Tag},
	}
	if route.Request != nil {
		op.RequestBody = requestBody(g.extractSchema(route.Request))
	}
	var body *openapi3.SchemaRef
	if route.Response != nil {
		body = g.extractSchema(route.Response)
	}
	status := route.Status
	if status == 0 {
		status = http.StatusOK
	}
	op.Responses = responses(status, body)
	if route.PathParam != "" {
		op.Parameters = openapi3.Parameters{pathParameter(route.PathParam)}
	}

	item := doc.Paths.Value(route.Path)
	if item == nil {
		item = &openapi3.PathItem{}
		doc.Paths.Set(route.Path, item)
	}
	item.SetOperation(route.Method, op)
}

// extractSchema builds an object schema from a struct. Embedded structs are
// flattened the way encoding/json flattens them.
func (g *Generator) extractSchema(model any) *openapi3.SchemaRef {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	schema := &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: make(openapi3.Schemas),
	}
	g.collectFields(t, schema)
	return &openapi3.SchemaRef{Value: schema}
}

func (g *Generator) collectFields(t reflect.Type, schema *openapi3.Schema) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		if field.Anonymous && jsonTag == "" {
			ft := field.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				g.collectFields(ft, schema)
				continue
			}
		}
		if !field.IsExported() {
			continue
		}

		name := field.Name
		parts := strings.Split(jsonTag, ",")
		if parts[0] != "" {
			name = parts[0]
		}
		if prop := g.goTypeToSchema(field.Type); prop != nil {
			schema.Properties[name] = prop
		}
		if strings.Contains(field.Tag.Get("validate"), "required") {
			schema.Required = append(schema.Required, name)
		}
	}
}

// goTypeToSchema converts a Go type to an OpenAPI schema.
func (g *Generator) goTypeToSchema(t reflect.Type) *openapi3.SchemaRef {
	switch t.Kind() {
	case reflect.String:
		return stringSchema()

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}}

	case reflect.Int64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int64"}}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return intSchema()

	case reflect.Float32, reflect.Float64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"number"}, Format: "double"}}

	case reflect.Bool:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}}

	case reflect.Slice, reflect.Array:
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:  &openapi3.Types{"array"},
				Items: g.goTypeToSchema(t.Elem()),
			},
		}

	case reflect.Map:
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:                 &openapi3.Types{"object"},
				AdditionalProperties: openapi3.AdditionalProperties{Schema: g.goTypeToSchema(t.Elem())},
			},
		}

	case reflect.Ptr:
		schema := g.goTypeToSchema(t.Elem())
		if schema != nil && schema.Value != nil {
			schema.Value.Nullable = true
		}
		return schema

	case reflect.Struct:
		if t == reflect.TypeOf(time.Time{}) {
			return &openapi3.SchemaRef{
				Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time"},
			}
		}
		return g.extractSchema(reflect.New(t).Interface())

	default:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}}
	}
}

// =============================================================================
// Helpers
// =============================================================================

func stringSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}
}

func intSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}}}
}

func ref(name string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Ref: "#/components/schemas/" + name}
}

func slugParameter() *openapi3.ParameterRef {
	p := pathParameter("slug")
	p.Value.Description = "Entity slug (name-id) or bare id"
	return p
}

func pathParameter(name string) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{
		Value: &openapi3.Parameter{
			Name:     name,
			In:       "path",
			Required: true,
			Schema:   stringSchema(),
		},
	}
}

func queryParameters(params []QueryParam) openapi3.Parameters {
	out := make(openapi3.Parameters, 0, len(params))
	for _, p := range params {
		typ := p.Type
		if typ == "" {
			typ = "string"
		}
		schema := &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{typ}}}
		for _, e := range p.Enum {
			schema.Value.Enum = append(schema.Value.Enum, e)
		}
		if p.Repeatable {
			schema = &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"array"}, Items: schema}}
		}
		out = append(out, &openapi3.ParameterRef{
			Value: &openapi3.Parameter{
				Name:        p.Name,
				In:          "query",
				Description: p.Description,
				Schema:      schema,
			},
		})
	}
	return out
}

func requestBody(schema *openapi3.SchemaRef) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Required: true,
			Content:  openapi3.NewContentWithJSONSchemaRef(schema),
		},
	}
}

func responses(status int, body *openapi3.SchemaRef) *openapi3.Responses {
	desc := http.StatusText(status)
	ok := &openapi3.Response{Description: &desc}
	if body != nil {
		ok.Content = openapi3.NewContentWithJSONSchemaRef(body)
	}
	errDesc := "Error"
	errResp := &openapi3.Response{
		Description: &errDesc,
		Content:     openapi3.NewContentWithJSONSchemaRef(ref("Error")),
	}
	return openapi3.NewResponses(
		openapi3.WithStatus(status, &openapi3.ResponseRef{Value: ok}),
		openapi3.WithName("default", errResp),
	)
}

// capitalize returns the string with the first letter capitalized.
func capitalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
