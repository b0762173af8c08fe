// Package config provides service configuration and batch run definitions.
//
// Service settings load from a .env file (godotenv) and the environment via
// go-simpler/env struct tags. Batch runs are YAML documents or named presets.
package config
