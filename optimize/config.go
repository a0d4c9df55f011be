package optimize

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var (
	ErrNoBlueprintID = errors.New("config: blueprint_id is required")
	ErrNoInputs      = errors.New("config: at least one input field is required")
)

// InputField describes one field whose extraction the optimization run is
// expected to improve, together with the ground truth used to judge it.
type InputField struct {
	FieldName           string `json:"field_name"`
	Instruction         string `json:"instruction"`
	DataPointInDocument bool   `json:"data_point_in_document"`
	ExpectedOutput      string `json:"expected_output"`
}

// Config drives one optimization run. Field names follow the run-config
// file format the automation service tooling produces.
type Config struct {
	ProjectARN    string       `json:"project_arn"`
	BlueprintID   string       `json:"blueprint_id"`
	ProfileARN    string       `json:"dataAutomation_profilearn"`
	ProjectStage  string       `json:"project_stage"`
	InputDocument string       `json:"input_document"`
	Inputs        []InputField `json:"inputs"`
}

// LoadConfig reads a run config from a JSON file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the config to a JSON file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// Validate checks the fields a run cannot proceed without.
func (c *Config) Validate() error {
	if c.BlueprintID == "" {
		return ErrNoBlueprintID
	}
	if len(c.Inputs) == 0 {
		return ErrNoInputs
	}
	return nil
}

// InstructionTable returns the per-path instructions carried by the config,
// keyed by field name or dotted path.
func (c *Config) InstructionTable() map[string]string {
	table := make(map[string]string, len(c.Inputs))
	for _, in := range c.Inputs {
		if in.FieldName == "" {
			continue
		}
		table[in.FieldName] = in.Instruction
	}
	return table
}
