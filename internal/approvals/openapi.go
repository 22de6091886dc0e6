package approvals

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var openAPISource []byte

var (
	openAPIOnce sync.Once
	openAPIDoc  *openapi3.T
	openAPIErr  error
)

// LoadOpenAPI parses and validates the embedded document describing the
// approval routes.
func LoadOpenAPI(ctx context.Context) (*openapi3.T, error) {
	openAPIOnce.Do(func() {
		loader := &openapi3.Loader{Context: ctx, IsExternalRefsAllowed: false}
		doc, err := loader.LoadFromData(openAPISource)
		if err != nil {
			openAPIErr = fmt.Errorf("approvals: load openapi: %w", err)
			return
		}
		if err := doc.Validate(loader.Context); err != nil {
			openAPIErr = fmt.Errorf("approvals: validate openapi: %w", err)
			return
		}
		openAPIDoc = doc
	})
	return openAPIDoc, openAPIErr
}

// OpenAPI returns the validated document. The embedded source is covered by
// tests, so a failure here is a build defect.
func OpenAPI() *openapi3.T {
	doc, err := LoadOpenAPI(context.Background())
	if err != nil {
		panic(err)
	}
	return doc
}
