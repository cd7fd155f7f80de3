// Package defaults provides embedded default assets.
package defaults

import _ "embed"

//go:embed default_config.json
var DefaultConfigJSON []byte
