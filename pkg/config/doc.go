// Package config loads typed configuration structs from the environment.
//
// It wraps caarlos0/env parsing with optional .env loading via godotenv and
// caches each configuration type so every component sees the same values.
package config
