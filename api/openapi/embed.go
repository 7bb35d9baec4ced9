// Package openapi embeds the OpenAPI description of the HTTP API.
package openapi

import _ "embed"

// Spec is the raw openapi.yaml document.
//
//go:embed openapi.yaml
var Spec []byte
