package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type yamlNamed struct {
	PageSize int    `yaml:"pageSize"`
	Skipped  string `yaml:"-"`
	Plain    bool
}

func TestYAMLNameOfFieldInStruct(t *testing.T) {
	assert.Equal(t, "pageSize", YAMLNameOfFieldInStruct("PageSize", &yamlNamed{}))
	assert.Equal(t, "", YAMLNameOfFieldInStruct("Skipped", &yamlNamed{}))
	assert.Equal(t, "plain", YAMLNameOfFieldInStruct("Plain", yamlNamed{}))
	assert.Equal(t, "", YAMLNameOfFieldInStruct("Missing", yamlNamed{}))
}

func TestParseLineNumberFromYAMLError(t *testing.T) {
	assert.Equal(t, 4, ParseLineNumberFromYAMLError("yaml: unmarshal errors:\n  line 4: field foo not found"))
	assert.Equal(t, 0, ParseLineNumberFromYAMLError("something else"))
}
