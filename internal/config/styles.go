package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// StylePreset is a user-defined conversation style stored as YAML under
// the config directory, alongside the built-in friend/coach/assistant
// presets.
type StylePreset struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Prompt      string `yaml:"system_prompt"`
}

func StylesDir() (string, error) {
	dir := filepath.Join(configDir(), "styles")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

func SaveStylePreset(p StylePreset) error {
	if p.Name == "" {
		return fmt.Errorf("style preset needs a name")
	}
	dir, err := StylesDir()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, p.Name+".yaml"), data, 0644)
}

func LoadStylePreset(name string) (*StylePreset, error) {
	dir, err := StylesDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, name+".yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("style %q not found", name)
		}
		return nil, err
	}
	var p StylePreset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if p.Prompt == "" {
		return nil, fmt.Errorf("style %q has no system_prompt", name)
	}
	return &p, nil
}

func ListStylePresets() ([]string, error) {
	dir, err := StylesDir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".yaml" {
			names = append(names, e.Name()[:len(e.Name())-5])
		}
	}
	return names, nil
}

func DeleteStylePreset(name string) error {
	dir, err := StylesDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, name+".yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("style %q not found", name)
	}
	return os.Remove(path)
}
