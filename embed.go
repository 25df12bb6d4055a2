package clocktower

import (
	_ "embed"
)

// Default announcement text, used when no flavor file is configured
//
//go:embed static/flavor.yaml
var DefaultFlavorYAML []byte
