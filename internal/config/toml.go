package config

import "github.com/BurntSushi/toml"

// tomlDecodeFile is a thin wrapper so only this file imports the toml
// package — the primary config format remains YAML via viper.
func tomlDecodeFile(path string, v any) (toml.MetaData, error) {
	return toml.DecodeFile(path, v)
}
