// Package config provides configuration loading and validation for the storefront client.
// A YAML file is read over built-in defaults, an optional .env file and STOREFRONT_*
// environment variables override it, and every section is validated.
package config
