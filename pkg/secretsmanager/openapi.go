package secretsmanager

import (
	"context"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/Checker-Finance/secrets-manager-sdk/pkg/operation"
)

var integerQueryParams = map[string]bool{"limit": true, "offset": true}

// OpenAPIDocument renders the operation table of gen as an OpenAPI 3
// document and validates it, which catches path templates whose
// placeholders and declared path parameters disagree.
func OpenAPIDocument(ctx context.Context, gen Generation) (*openapi3.T, error) {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "Secrets Manager",
			Description: fmt.Sprintf("Secrets Manager operations (%s api)", gen),
			Version:     SDKVersion,
		},
		Paths: &openapi3.Paths{},
	}

	for _, spec := range Operations(gen) {
		item := doc.Paths.Value(spec.Path)
		if item == nil {
			item = &openapi3.PathItem{}
		}
		item.SetOperation(spec.Method, specOperation(spec))
		doc.Paths.Set(spec.Path, item)
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("openapi document for %s api: %w", gen, err)
	}
	return doc, nil
}

func specOperation(spec operation.Spec) *openapi3.Operation {
	op := &openapi3.Operation{
		OperationID: spec.ID,
		Summary:     spec.ID,
		Responses:   specResponses(spec),
	}

	body := &openapi3.Schema{Type: &openapi3.Types{"object"}, Properties: openapi3.Schemas{}}
	hasBody := false
	for _, p := range spec.Params {
		switch p.In {
		case operation.InPath:
			op.Parameters = append(op.Parameters, &openapi3.ParameterRef{Value: &openapi3.Parameter{
				Name:     p.WireName(),
				In:       openapi3.ParameterInPath,
				Required: true,
				Schema:   stringSchema(),
			}})
		case operation.InQuery:
			schema := stringSchema()
			if integerQueryParams[p.WireName()] {
				schema = &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}}}
			}
			op.Parameters = append(op.Parameters, &openapi3.ParameterRef{Value: &openapi3.Parameter{
				Name:     p.WireName(),
				In:       openapi3.ParameterInQuery,
				Required: p.Required,
				Schema:   schema,
			}})
		case operation.InBody:
			hasBody = true
			if spec.Body == operation.BodyFields {
				body.Properties[p.WireName()] = &openapi3.SchemaRef{Value: &openapi3.Schema{}}
				if p.Required {
					body.Required = append(body.Required, p.WireName())
				}
			}
		}
	}

	if hasBody {
		op.RequestBody = &openapi3.RequestBodyRef{Value: &openapi3.RequestBody{
			Required: len(body.Required) > 0 || spec.Body == operation.BodyPassThrough,
			Content:  openapi3.NewContentWithJSONSchema(body),
		}}
	}
	return op
}

func specResponses(spec operation.Spec) *openapi3.Responses {
	if spec.Accept == "" {
		return openapi3.NewResponses(
			openapi3.WithStatus(http.StatusNoContent, &openapi3.ResponseRef{
				Value: &openapi3.Response{Description: ptr("No content")},
			}),
		)
	}
	status := http.StatusOK
	if spec.Method == http.MethodPost && spec.Body == operation.BodyFields {
		status = http.StatusCreated
	}
	return openapi3.NewResponses(
		openapi3.WithStatus(status, &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: ptr(http.StatusText(status)),
				Content:     openapi3.NewContentWithJSONSchema(collectionSchema()),
			},
		}),
	)
}

func collectionSchema() *openapi3.Schema {
	return &openapi3.Schema{
		Type: &openapi3.Types{"object"},
		Properties: openapi3.Schemas{
			"metadata": {Value: &openapi3.Schema{
				Type: &openapi3.Types{"object"},
				Properties: openapi3.Schemas{
					"collection_type":  stringSchema(),
					"collection_total": {Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}}},
				},
			}},
			"resources": {Value: &openapi3.Schema{
				Type:  &openapi3.Types{"array"},
				Items: &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}},
			}},
		},
	}
}

func stringSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}
}

func ptr[T any](v T) *T { return &v }
