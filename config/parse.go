package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/mitchellh/go-homedir"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// Load reads, parses and validates the config file at path
func Load(path string) (*Config, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("invalid config path %q: %w", path, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data, expanded)
}

// Parse decodes HCL config, applies defaults and validates the result
func Parse(data []byte, filename string) (*Config, error) {
	var cfg Config
	if err := parseConfig(data, filename, hcl.InitialPos, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.setDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filename, err)
	}
	return &cfg, nil
}

func parseConfig[T any](configString []byte, filename string, startPos hcl.Pos, target *T) error {
	// parse the config
	file, diags := hclsyntax.ParseConfig(configString, filename, startPos)
	if diags.HasErrors() {
		slog.Error("parseConfig: failed to parse config into hcl file", "diags", diags)
		return diagsToError("failed to parse config", diags)
	}
	evalCtx := &hcl.EvalContext{
		Variables: make(map[string]cty.Value),
		Functions: map[string]function.Function{
			"env": envFunc,
		},
	}
	// decode the body into the target struct
	moreDiags := gohcl.DecodeBody(file.Body, evalCtx, target)
	diags = append(diags, moreDiags...)
	if diags.HasErrors() {
		slog.Error("parseConfig: failed to decode config body", "diags", diags)
		return diagsToError("failed to parse config", diags)
	}
	return nil
}

// envFunc returns the value of an environment variable, or an empty string if it is unset
var envFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "name", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		return cty.StringVal(os.Getenv(args[0].AsString())), nil
	},
})

func diagsToError(prefix string, diags hcl.Diagnostics) error {
	var msgs []string
	for _, diag := range diags {
		if diag.Severity != hcl.DiagError {
			continue
		}
		msg := diag.Summary
		if diag.Detail != "" {
			msg = fmt.Sprintf("%s: %s", msg, diag.Detail)
		}
		if diag.Subject != nil {
			msg = fmt.Sprintf("%s (%s)", msg, diag.Subject.String())
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("%s: %s", prefix, strings.Join(msgs, "; "))
}
