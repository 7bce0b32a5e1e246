package api

import (
	_ "embed"

	"github.com/swaggo/swag"
)

//go:embed openapi.json
var openAPIDoc string

type openAPI struct{}

func (openAPI) ReadDoc() string { return openAPIDoc }

func init() {
	swag.Register(swag.Name, openAPI{})
}
