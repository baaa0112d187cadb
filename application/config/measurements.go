package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/basm-dev/basm-sdk-go/domain/entities"
	"github.com/basm-dev/basm-sdk-go/domain/errors"
)

// MeasurementList is the YAML document listing acceptable enclave measurements:
//
//	measurements:
//	  - platform: nitro
//	    code: 9f2c...
type MeasurementList struct {
	Measurements []entities.EnclaveMeasurement `yaml:"measurements" validate:"dive"`
}

// ParseMeasurements decodes and validates a measurement list.
func ParseMeasurements(data []byte) ([]entities.EnclaveMeasurement, error) {
	var list MeasurementList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, &errors.ConfigError{Field: "measurements", Err: err}
	}
	if err := Validate(&list); err != nil {
		return nil, err
	}
	if list.Measurements == nil {
		return []entities.EnclaveMeasurement{}, nil
	}
	return list.Measurements, nil
}

// LoadMeasurements reads a measurement list file.
func LoadMeasurements(path string) ([]entities.EnclaveMeasurement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read measurements: %w", err)
	}
	return ParseMeasurements(data)
}
