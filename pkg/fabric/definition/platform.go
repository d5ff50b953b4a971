package definition

import (
	"encoding/json"
	"fmt"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric"
)

const (
	PlatformFile = ".platform"
	PBISMFile    = "definition.pbism"
	PBIRFile     = "definition.pbir"

	platformSchema = "https://developer.microsoft.com/json-schemas/fabric/gitIntegration/platformProperties/2.0.0/schema.json"
	pbismSchema    = "https://developer.microsoft.com/json-schemas/fabric/item/semanticModel/definitionProperties/1.0.0/schema.json"
	pbirSchema     = "https://developer.microsoft.com/json-schemas/fabric/item/report/definitionProperties/2.0.0/schema.json"
)

type platform struct {
	Schema   string           `json:"$schema"`
	Metadata platformMetadata `json:"metadata"`
	Config   platformConfig   `json:"config"`
}

type platformMetadata struct {
	Type        string `json:"type"`
	DisplayName string `json:"displayName"`
}

type platformConfig struct {
	Version   string `json:"version"`
	LogicalID string `json:"logicalId"`
}

// Platform renders the .platform file that git integration and imports expect next to a definition.
func Platform(itemType fabric.ItemType, displayName, logicalID string) (string, error) {
	return marshalIndent(platform{
		Schema:   platformSchema,
		Metadata: platformMetadata{Type: string(itemType), DisplayName: displayName},
		Config:   platformConfig{Version: "2.0", LogicalID: logicalID},
	})
}

// PBISM renders an empty definition.pbism.
func PBISM() (string, error) {
	return marshalIndent(map[string]any{
		"$schema":  pbismSchema,
		"version":  "4.0",
		"settings": map[string]any{},
	})
}

// PBIRByPath renders a definition.pbir pointing at a model folder relative to the report.
func PBIRByPath(modelDir string) (string, error) {
	return marshalIndent(map[string]any{
		"$schema": pbirSchema,
		"version": "4.0",
		"datasetReference": map[string]any{
			"byPath": map[string]string{"path": modelDir},
		},
	})
}

func marshalIndent(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: %v", errUtils.ErrOutputWrite, err)
	}
	return string(data), nil
}
