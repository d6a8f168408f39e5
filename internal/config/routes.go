package config

import (
	"errors"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	matchPrefix = "prefix"
	matchExact  = "exact"
)

// route is the on-disk form of one routing table row. Order in the file is
// priority order: patterns may overlap and the first match wins.
type route struct {
	Pattern    string `toml:"pattern"`
	Match      string `toml:"match"`
	Credential string `toml:"credential"`
	Kind       string `toml:"kind"`
}

type routesSchema struct {
	Routes []route `toml:"routes"`
}

// defaultRoutes reproduces the routing the tool shipped with: watsonx model
// families behind IBM token auth, a hosted OpenAI-compatible catch-all for
// gpt- models, and a local llama via Ollama.
func defaultRoutes() []route {
	return []route{
		{Pattern: "ibm/", Match: matchPrefix, Credential: "IBM", Kind: "token_auth"},
		{Pattern: "meta-llama/", Match: matchPrefix, Credential: "IBM", Kind: "token_auth"},
		{Pattern: "mistralai/", Match: matchPrefix, Credential: "IBM", Kind: "token_auth"},
		{Pattern: "gpt-", Match: matchPrefix, Credential: "OPENAI", Kind: "hosted"},
		{Pattern: "llama3.1:8b", Match: matchExact, Credential: "OLLAMA", Kind: "local"},
	}
}

func loadRoutes(path string) ([]route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultRoutes(), nil
		}
		return nil, fmt.Errorf("read routes file: %w", err)
	}

	var schema routesSchema
	if err := toml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parse routes file: %w", err)
	}
	if len(schema.Routes) == 0 {
		return defaultRoutes(), nil
	}

	for i := range schema.Routes {
		if schema.Routes[i].Match == "" {
			schema.Routes[i].Match = matchPrefix
		}
		if schema.Routes[i].Match != matchPrefix && schema.Routes[i].Match != matchExact {
			return nil, fmt.Errorf("route %q: unsupported match %q", schema.Routes[i].Pattern, schema.Routes[i].Match)
		}
	}

	return schema.Routes, nil
}
