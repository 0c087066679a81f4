// Package config loads the stats run configuration. Secrets follow the
// CI contract and come only from the environment (ACCESS_TOKEN,
// USER_NAME, ENABLE_ARCHIVE); everything else lives in an optional YAML
// file layered over built-in defaults.
package config
