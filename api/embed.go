// Package api holds the OpenAPI document of the HTTP API.
package api

import _ "embed"

//go:embed openapi.yml
var OpenAPI []byte
