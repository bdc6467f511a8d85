package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// MergeOptions controls how provisioned resource metadata is folded into the
// staged deployment-settings file.
type MergeOptions struct {
	// OutputPath is an optional JMESPath expression selecting the subtree of
	// the provision document to merge (e.g. "properties.outputs"). When
	// empty, the whole document is merged.
	OutputPath string
}

// MergeProvisionedSettings reads the staged settings file at path, overlays
// the provision resource metadata onto it, and writes the merged document
// back formatted. Provision fields win over staged fields; nested objects are
// merged recursively.
func MergeProvisionedSettings(path string, provision json.RawMessage, opts MergeOptions) error {
	settings := map[string]any{}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &settings); err != nil {
			return fmt.Errorf("decode staged settings: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Start from an empty document; the merge below creates it.
	default:
		return fmt.Errorf("read staged settings: %w", err)
	}

	overlay, err := provisionOverlay(provision, opts.OutputPath)
	if err != nil {
		return err
	}

	merged := mergeMaps(settings, overlay)
	formatted, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return fmt.Errorf("encode merged settings: %w", err)
	}
	if err := os.WriteFile(path, formatted, 0o644); err != nil {
		return fmt.Errorf("write merged settings: %w", err)
	}
	return nil
}

func provisionOverlay(provision json.RawMessage, outputPath string) (map[string]any, error) {
	var doc any
	if err := json.Unmarshal(provision, &doc); err != nil {
		return nil, fmt.Errorf("decode provision metadata: %w", err)
	}

	if outputPath != "" {
		selected, err := jmespath.Search(outputPath, doc)
		if err != nil {
			return nil, fmt.Errorf("select provision outputs %q: %w", outputPath, err)
		}
		doc = selected
	}

	overlay, ok := doc.(map[string]any)
	if !ok {
		return nil, errors.New("provision metadata must be a JSON object")
	}
	return overlay, nil
}

// ExtractProvisionField evaluates a JMESPath expression against the provision
// document and returns the result as a string. The boolean reports whether
// the expression matched a non-empty string.
func ExtractProvisionField(provision json.RawMessage, expr string) (string, bool) {
	var doc any
	if err := json.Unmarshal(provision, &doc); err != nil {
		return "", false
	}
	result, err := jmespath.Search(expr, doc)
	if err != nil {
		return "", false
	}
	s, ok := result.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// mergeMaps overlays src onto dst recursively. Scalars and arrays in src
// replace dst values; maps merge key-by-key.
func mergeMaps(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for key, value := range src {
		srcMap, srcIsMap := value.(map[string]any)
		dstMap, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			dst[key] = mergeMaps(dstMap, srcMap)
			continue
		}
		dst[key] = value
	}
	return dst
}
