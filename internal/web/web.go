package web

import _ "embed"

// IndexHTML is the light show preview page.
//
//go:embed index.html
var IndexHTML []byte
