package datahub

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "west-europe"

var regionHosts = map[string]string{
	"west-europe":      "wabi-west-europe-e-primary-redirect.analysis.windows.net",
	"north-europe":     "wabi-north-europe-e-primary-redirect.analysis.windows.net",
	"us-east":          "wabi-us-east-e-primary-redirect.analysis.windows.net",
	"us-east2":         "wabi-us-east2-e-primary-redirect.analysis.windows.net",
	"us-west":          "wabi-us-west-e-primary-redirect.analysis.windows.net",
	"us-north-central": "wabi-us-north-central-e-primary-redirect.analysis.windows.net",
	"us-south-central": "wabi-us-south-central-e-primary-redirect.analysis.windows.net",
	"south-east-asia":  "wabi-south-east-asia-e-primary-redirect.analysis.windows.net",
	"australia-east":   "wabi-australia-east-e-primary-redirect.analysis.windows.net",
	"brazil-south":     "wabi-brazil-south-e-primary-redirect.analysis.windows.net",
	"canada-central":   "wabi-canada-central-e-primary-redirect.analysis.windows.net",
	"india-west":       "wabi-india-west-e-primary-redirect.analysis.windows.net",
	"japan-east":       "wabi-japan-east-e-primary-redirect.analysis.windows.net",
	"uk-south":         "wabi-uk-south-e-primary-redirect.analysis.windows.net",
}

// Region is a DataHub cluster.
type Region struct {
	Name    string `json:"name" yaml:"name"`
	Host    string `json:"host" yaml:"host"`
	Default bool   `json:"default,omitempty" yaml:"default,omitempty"`
}

// Regions returns every known region sorted by name.
func Regions() []Region {
	names := lo.Keys(regionHosts)
	sort.Strings(names)
	return lo.Map(names, func(name string, _ int) Region {
		return Region{Name: name, Host: regionHosts[name], Default: name == DefaultRegion}
	})
}

// Host returns the API host of region.
func Host(region string) (string, error) {
	if region == "" {
		region = DefaultRegion
	}
	host, ok := regionHosts[strings.ToLower(region)]
	if !ok {
		return "", errUtils.Build(fmt.Errorf("%w: %q", errUtils.ErrInvalidRegion, region)).
			WithHint("Run `fabkit datahub search --list-regions` to see the known regions").
			Err()
	}
	return host, nil
}

// TypeInfo describes a DataHub item type. Trident is the name sent in tridentSupportedTypes.
type TypeInfo struct {
	Name        string `json:"name" yaml:"name"`
	Trident     string `json:"trident" yaml:"trident"`
	Category    string `json:"category" yaml:"category"`
	Description string `json:"description" yaml:"description"`
}

// DataHub names differ from Fabric item types: semantic models are "Model",
// dataflows "DataFlow" and notebooks "SynapseNotebook".
var itemTypes = []TypeInfo{
	{"PowerBIReport", "report", "Reports", "Power BI reports"},
	{"Report", "report", "Reports", "Alias for PowerBIReport"},
	{"PaginatedReport", "rdlreport", "Reports", "Paginated reports"},
	{"Dashboard", "dashboard", "Reports", "Power BI dashboards"},
	{"OrgApp", "OrgApp", "Reports", "Published Power BI apps"},
	{"Model", "dataset", "Models", "Semantic models"},
	{"SemanticModel", "semanticModel", "Models", "Semantic models, often returns nothing; prefer Model"},
	{"MetricSet", "MetricSet", "Models", "Metric sets"},
	{"Lakehouse", "Lakehouse", "Data", "Lakehouses"},
	{"Warehouse", "Warehouse", "Data", "Warehouses"},
	{"Datamart", "datamart", "Data", "Datamarts"},
	{"Sql", "datamart", "Data", "SQL endpoints"},
	{"KustoDatabase", "KustoDatabase", "Data", "KQL databases"},
	{"KustoEventHouse", "KustoEventHouse", "Data", "Eventhouses"},
	{"SQLDbNative", "SQLDbNative", "Data", "SQL databases"},
	{"CosmosDB", "CosmosDB", "Data", "Cosmos DB mirrors"},
	{"DatabricksCatalog", "DatabricksCatalog", "Data", "Databricks catalogs"},
	{"SqlAnalyticsEndpoint", "SqlAnalyticsEndpoint", "Data", "SQL analytics endpoints"},
	{"WarehouseSnapshot", "WarehouseSnapshot", "Data", "Warehouse snapshots"},
	{"Lakewarehouse", "lake-warehouse", "Data", "Lake warehouses"},
	{"MountedWarehouse", "mounted-warehouse", "Data", "Mounted warehouses"},
	{"MountedRelationalDatabase", "MountedRelationalDatabase", "Data", "Mounted databases"},
	{"DataFlow", "dataflow", "Integration", "Power BI dataflows"},
	{"Dataflow", "dataflow", "Integration", "Alias for DataFlow"},
	{"DataflowFabric", "DataflowFabric", "Integration", "Dataflows Gen2"},
	{"Pipeline", "Pipeline", "Integration", "Data pipelines"},
	{"DataPipeline", "DataPipeline", "Integration", "Alias for Pipeline"},
	{"CopyJob", "CopyJob", "Integration", "Copy jobs"},
	{"EventStream", "EventStream", "Integration", "Event streams"},
	{"MountedDataFactory", "MountedDataFactory", "Integration", "Azure Data Factory connections"},
	{"ApacheAirflowProject", "ApacheAirflowProject", "Integration", "Airflow projects"},
	{"SynapseNotebook", "SynapseNotebook", "Compute", "Notebooks"},
	{"Notebook", "SynapseNotebook", "Compute", "Alias for SynapseNotebook"},
	{"SparkJobDefinition", "SparkJobDefinition", "Compute", "Spark job definitions"},
	{"MLModel", "MLModel", "ML", "ML models"},
	{"MLExperiment", "MLExperiment", "ML", "ML experiments"},
	{"OperationalAgents", "OperationalAgents", "ML", "Operational agents"},
	{"LLMPlugin", "LLMPlugin", "ML", "LLM plugins"},
	{"KustoDashboard", "KustoDashboard", "Real-Time", "Real-time dashboards"},
	{"KustoQueryWorkbench", "KustoQueryWorkbench", "Real-Time", "KQL query workbenches"},
	{"Reflex", "Reflex", "Solutions", "Activator items"},
	{"ReflexProject", "ReflexProject", "Solutions", "Activator projects"},
	{"GraphQL", "GraphQL", "Solutions", "GraphQL APIs"},
	{"GraphModel", "GraphModel", "Solutions", "Graph models"},
	{"FunctionSet", "FunctionSet", "Solutions", "Function sets"},
	{"DataExploration", "DataExploration", "Solutions", "Data explorations"},
	{"Exploration", "Exploration", "Solutions", "Explorations"},
	{"Ontology", "Ontology", "Knowledge", "Ontologies"},
	{"DigitalTwinBuilder", "DigitalTwinBuilder", "Industry", "Digital twin builders"},
	{"HealthDataManager", "HealthDataManager", "Industry", "Healthcare data managers"},
	{"HLSCohort", "HLSCohort", "Industry", "Healthcare cohorts"},
	{"RetailDataManager", "RetailDataManager", "Industry", "Retail data managers"},
	{"SustainabilityDataManager", "SustainabilityDataManager", "Industry", "Sustainability data managers"},
	{"Environment", "Environment", "Config", "Spark environments"},
	{"Variables", "Variables", "Config", "Variable libraries"},
}

// Types returns the known item types sorted by category, then name.
func Types() []TypeInfo {
	out := make([]TypeInfo, len(itemTypes))
	copy(out, itemTypes)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// LookupType finds a known type by its exact name.
func LookupType(name string) (TypeInfo, bool) {
	return lo.Find(itemTypes, func(t TypeInfo) bool { return t.Name == name })
}

// tridentName maps a type to its trident name. Unknown types are sent lowercased.
func tridentName(name string) string {
	if t, ok := LookupType(name); ok {
		return t.Trident
	}
	return strings.ToLower(name)
}
