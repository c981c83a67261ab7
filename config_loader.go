package fn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

var (
	// ErrCfgNotFound defines the inability to find a config at the expected location.
	ErrCfgNotFound = errors.New("no config provided")
)

// ConfigLoader defines the behavior for loading config.
type ConfigLoader interface {
	LoadConfig(ctx context.Context) ([]byte, error)
}

// RegisterConfigLoader registers a config loader at the specified type. Similar to registering
// a driver with database/sql, a config source can be provided for use at runtime. During Run,
// the config loader defined by the env var, FN_CONFIG_LOADER_TYPE, is used. If one is not provided,
// then the fs config loader will be used.
func RegisterConfigLoader(loaderType string, cr ConfigLoader) {
	if _, ok := configReaders[loaderType]; ok {
		panic(fmt.Sprintf("config loader type already exists: %q", loaderType))
	}

	configReaders[loaderType] = cr
}

func loadConfigBytes(ctx context.Context) ([]byte, error) {
	crt := os.Getenv("FN_CONFIG_LOADER_TYPE")
	if crt == "" {
		crt = "fs"
	}

	loader := configReaders[crt]
	if loader == nil {
		return nil, fmt.Errorf("unmatched config loader type provided: %q", crt)
	}

	return loader.LoadConfig(ctx)
}

var configReaders = map[string]ConfigLoader{
	"fs":  new(localCfgLoader),
	"env": new(envCfgLoader),
}

// localCfgLoader reads the file named by FN_CONFIG_PATH. Files ending in
// .yaml or .yml are converted to JSON.
type localCfgLoader struct{}

func (*localCfgLoader) LoadConfig(ctx context.Context) ([]byte, error) {
	file := os.Getenv("FN_CONFIG_PATH")
	if file == "" {
		return nil, ErrCfgNotFound
	}

	b, err := os.ReadFile(file)
	if os.IsNotExist(err) {
		return nil, ErrCfgNotFound
	}
	if err != nil {
		return nil, err
	}

	if ext := filepath.Ext(file); ext == ".yaml" || ext == ".yml" {
		return yamlToJSON(b)
	}

	return b, nil
}

// envCfgLoader reads the config inline from FN_CONFIG, as JSON when it starts
// with a brace and as YAML otherwise.
type envCfgLoader struct{}

func (*envCfgLoader) LoadConfig(ctx context.Context) ([]byte, error) {
	v := strings.TrimSpace(os.Getenv("FN_CONFIG"))
	if v == "" {
		return nil, ErrCfgNotFound
	}
	if strings.HasPrefix(v, "{") {
		return []byte(v), nil
	}
	return yamlToJSON([]byte(v))
}

func yamlToJSON(b []byte) ([]byte, error) {
	var out map[string]any
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("failed to read yaml config: %w", err)
	}
	return json.Marshal(jsonable(out))
}

// jsonable replaces the map[interface{}]interface{} values yaml produces for
// nested mappings with maps json can encode.
func jsonable(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		for k, e := range vv {
			vv[k] = jsonable(e)
		}
		return vv
	case map[any]any:
		out := make(map[string]any, len(vv))
		for k, e := range vv {
			out[fmt.Sprint(k)] = jsonable(e)
		}
		return out
	case []any:
		for i, e := range vv {
			vv[i] = jsonable(e)
		}
		return vv
	default:
		return v
	}
}
