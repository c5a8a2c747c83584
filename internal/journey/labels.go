package journey

import "github.com/agritrace/agritrace-backend/pkg/enums"

// stageLabels is the canonical display mapping for pipeline stages. Every
// consumer-facing status string derives from this table.
var stageLabels = map[enums.ProductStage]string{
	enums.ProductStageHarvested:   "Harvested",
	enums.ProductStageInTransport: "In Transport",
	enums.ProductStageInWarehouse: "In Warehouse",
	enums.ProductStageInRetail:    "In Retail",
	enums.ProductStageSold:        "Sold",
}

// StageLabel returns the display label for a stage.
func StageLabel(stage enums.ProductStage) string {
	if label, ok := stageLabels[stage]; ok {
		return label
	}
	return "Unknown"
}
