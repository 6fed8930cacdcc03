package config

import "os"

// ExpandEnv substitutes ${VAR} and $VAR references in raw YAML bytes with
// the current process environment before parsing, so secrets (API keys,
// database DSNs) never need to live in the YAML file itself. Variables
// with no value in the environment expand to the empty string; validation
// is responsible for catching any required field left empty this way.
func ExpandEnv(data []byte) []byte {
	return []byte(os.Expand(string(data), os.Getenv))
}
