// Package loader reads application descriptors from YAML, JSON and HCL files
// into the raw mapping accepted by the runner.
package loader

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/confinject/internal/ctxlog"
)

// UnsupportedFormatError is returned for files with an unknown extension.
var UnsupportedFormatError = errors.New("unsupported descriptor format")

// Load reads the descriptor file, choosing the format by its extension.
func Load(ctx context.Context, path string) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading descriptor.", "path", path)

	var (
		raw map[string]any
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", ".json":
		raw, err = loadYAML(path)
	case ".hcl":
		raw, err = loadHCL(path)
	default:
		return nil, fmt.Errorf("%w: '%s'", UnsupportedFormatError, path)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("Descriptor loaded.", "path", path, "keys", len(raw))
	return raw, nil
}

// loadYAML decodes a YAML document, which also covers JSON.
func loadYAML(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor: %w", err)
	}

	var document any
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("failed to parse descriptor %s: %w", path, err)
	}
	raw, ok := document.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("failed to parse descriptor %s: top level must be a mapping", path)
	}
	return raw, nil
}

// loadHCL decodes the top-level attributes of an HCL file.
func loadHCL(path string) (map[string]any, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse descriptor %s: %s", path, diags.Error())
	}

	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse descriptor %s: %s", path, diags.Error())
	}

	raw := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		value, diags := attr.Expr.Value(&hcl.EvalContext{})
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to evaluate '%s' in %s: %s", name, path, diags.Error())
		}
		native, err := ctyToNative(value)
		if err != nil {
			return nil, fmt.Errorf("attribute '%s' in %s: %w", name, path, err)
		}
		raw[name] = native
	}
	return raw, nil
}

// ctyToNative converts a cty value to the shapes produced by the YAML decoder.
// Whole numbers become int, other numbers float64.
func ctyToNative(value cty.Value) (any, error) {
	if value.IsNull() {
		return nil, nil
	}
	if !value.IsWhollyKnown() {
		return nil, errors.New("value is not known")
	}

	typ := value.Type()
	switch {
	case typ == cty.String:
		return value.AsString(), nil

	case typ == cty.Bool:
		return value.True(), nil

	case typ == cty.Number:
		number := value.AsBigFloat()
		if number.IsInt() {
			if whole, accuracy := number.Int64(); accuracy == big.Exact {
				return int(whole), nil
			}
		}
		float, _ := number.Float64()
		return float, nil

	case typ.IsListType() || typ.IsTupleType() || typ.IsSetType():
		list := make([]any, 0, value.LengthInt())
		for it := value.ElementIterator(); it.Next(); {
			_, item := it.Element()
			native, err := ctyToNative(item)
			if err != nil {
				return nil, err
			}
			list = append(list, native)
		}
		return list, nil

	case typ.IsObjectType() || typ.IsMapType():
		mapping := make(map[string]any, value.LengthInt())
		for it := value.ElementIterator(); it.Next(); {
			key, item := it.Element()
			native, err := ctyToNative(item)
			if err != nil {
				return nil, fmt.Errorf("key '%s': %w", key.AsString(), err)
			}
			mapping[key.AsString()] = native
		}
		return mapping, nil

	default:
		return nil, fmt.Errorf("unsupported value type %s", typ.FriendlyName())
	}
}
