package settings

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// environment keys read by LoadEnv
const (
	EnvLayerBudget        = "HOLODETECT_LAYER_BUDGET"
	EnvThreshold          = "HOLODETECT_THRESHOLD"
	EnvDebugImage         = "HOLODETECT_DEBUG_IMAGE"
	EnvDebugBoundingBoxes = "HOLODETECT_DEBUG_BOUNDING_BOXES"
	EnvDebugGrid          = "HOLODETECT_DEBUG_GRID"
	EnvDebugRaycast       = "HOLODETECT_DEBUG_RAYCAST"
)

// LoadFile reads settings from a YAML file, fields missing from the file
// keep their default value
func LoadFile(file string) (Settings, error) {

	f, err := os.Open(file)

	if err != nil {
		return Settings{}, fmt.Errorf("error opening settings file: %w", err)
	}

	defer f.Close()

	return ReadYAML(f)
}

// ReadYAML decodes settings from r on top of the defaults
func ReadYAML(r io.Reader) (Settings, error) {

	s := Defaults()

	if err := yaml.NewDecoder(r).Decode(&s); err != nil && err != io.EOF {
		return Settings{}, fmt.Errorf("error decoding settings: %w", err)
	}

	return s, nil
}

// LoadEnv applies HOLODETECT_* keys from the given env files on top of base.
// With no files the .env file in the working directory is read
func LoadEnv(base Settings, files ...string) (Settings, error) {

	env, err := godotenv.Read(files...)

	if err != nil {
		return Settings{}, fmt.Errorf("error reading env files: %w", err)
	}

	return ApplyEnv(base, env)
}

// ApplyEnv applies HOLODETECT_* keys found in env on top of base
func ApplyEnv(base Settings, env map[string]string) (Settings, error) {

	s := base

	if v, ok := env[EnvLayerBudget]; ok {
		if err := s.LayerBudget.UnmarshalText([]byte(v)); err != nil {
			return Settings{}, fmt.Errorf("%s: %w", EnvLayerBudget, err)
		}
	}

	if v, ok := env[EnvThreshold]; ok {
		if err := s.Threshold.UnmarshalText([]byte(v)); err != nil {
			return Settings{}, fmt.Errorf("%s: %w", EnvThreshold, err)
		}
	}

	flags := []struct {
		key string
		dst *bool
	}{
		{EnvDebugImage, &s.DebugImage},
		{EnvDebugBoundingBoxes, &s.DebugBoundingBoxes},
		{EnvDebugGrid, &s.DebugGrid},
		{EnvDebugRaycast, &s.DebugRaycast},
	}

	for _, f := range flags {

		v, ok := env[f.key]

		if !ok {
			continue
		}

		b, err := strconv.ParseBool(v)

		if err != nil {
			return Settings{}, fmt.Errorf("%s: %w: %q", f.key, ErrInvalidValue, v)
		}

		*f.dst = b
	}

	return s, nil
}
