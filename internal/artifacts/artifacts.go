package artifacts

import _ "embed"

// Global artifacts

//go:embed global/config.yaml
var GlobalConfig []byte
