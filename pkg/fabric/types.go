package fabric

import (
	"fmt"
	"sort"
	"strings"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
)

// ItemType is the Fabric item type as it appears in paths and API payloads.
type ItemType string

const (
	ItemTypeSemanticModel      ItemType = "SemanticModel"
	ItemTypeReport             ItemType = "Report"
	ItemTypeLakehouse          ItemType = "Lakehouse"
	ItemTypeNotebook           ItemType = "Notebook"
	ItemTypeWarehouse          ItemType = "Warehouse"
	ItemTypeDataPipeline       ItemType = "DataPipeline"
	ItemTypeDataflow           ItemType = "Dataflow"
	ItemTypeEnvironment        ItemType = "Environment"
	ItemTypeSparkJobDefinition ItemType = "SparkJobDefinition"
	ItemTypeCopyJob            ItemType = "CopyJob"
	ItemTypeReflex             ItemType = "Reflex"
	ItemTypeOntology           ItemType = "Ontology"
	ItemTypeGraphModel         ItemType = "GraphModel"
	ItemTypeExploration        ItemType = "Exploration"
	ItemTypeOrgApp             ItemType = "OrgApp"
)

var itemTypes = []ItemType{
	ItemTypeSemanticModel,
	ItemTypeReport,
	ItemTypeLakehouse,
	ItemTypeNotebook,
	ItemTypeWarehouse,
	ItemTypeDataPipeline,
	ItemTypeDataflow,
	ItemTypeEnvironment,
	ItemTypeSparkJobDefinition,
	ItemTypeCopyJob,
	ItemTypeReflex,
	ItemTypeOntology,
	ItemTypeGraphModel,
	ItemTypeExploration,
	ItemTypeOrgApp,
}

// Short names used by the fab CLI and older scripts.
var itemTypeAliases = map[string]ItemType{
	"sparkjobdef": ItemTypeSparkJobDefinition,
	"dataset":     ItemTypeSemanticModel,
	"pipeline":    ItemTypeDataPipeline,
}

var definitionTypes = map[ItemType]bool{
	ItemTypeSemanticModel:      true,
	ItemTypeReport:             true,
	ItemTypeNotebook:           true,
	ItemTypeDataPipeline:       true,
	ItemTypeDataflow:           true,
	ItemTypeEnvironment:        true,
	ItemTypeSparkJobDefinition: true,
	ItemTypeCopyJob:            true,
	ItemTypeReflex:             true,
	ItemTypeOntology:           true,
	ItemTypeGraphModel:         true,
}

// ItemTypes returns every known item type.
func ItemTypes() []ItemType {
	out := make([]ItemType, len(itemTypes))
	copy(out, itemTypes)
	return out
}

// ItemTypeNames returns the known item type names sorted alphabetically.
func ItemTypeNames() []string {
	names := make([]string, 0, len(itemTypes))
	for _, t := range itemTypes {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return names
}

// ParseItemType matches s case-insensitively against the known types and aliases.
func ParseItemType(s string) (ItemType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, t := range itemTypes {
		if strings.ToLower(string(t)) == key {
			return t, nil
		}
	}
	if t, ok := itemTypeAliases[key]; ok {
		return t, nil
	}
	return "", errUtils.Build(fmt.Errorf("%w: %q", errUtils.ErrUnknownItemType, s)).
		WithHintf("Known item types: %s", strings.Join(ItemTypeNames(), ", ")).
		Err()
}

// SupportsDefinition reports whether getDefinition is available for the type.
func (t ItemType) SupportsDefinition() bool {
	return definitionTypes[t]
}

func (t ItemType) String() string {
	return string(t)
}
