// Package config holds daintree's durable preferences: the enabled regions
// and the roles the user asked to remember. They live in a YAML document in
// the user's configuration directory, typically:
//   - Linux: $XDG_CONFIG_HOME/daintree.yaml or $HOME/.config/daintree.yaml
//   - macOS: $HOME/Library/Application Support/daintree.yaml
//
// DAINTREE_CFG_FILE overrides the location. Secrets are never written here.
package config
