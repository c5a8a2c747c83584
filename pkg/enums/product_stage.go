package enums

import "fmt"

// ProductStage tracks a product's position in the supply-chain pipeline.
type ProductStage string

const (
	ProductStageHarvested   ProductStage = "harvested"
	ProductStageInTransport ProductStage = "in_transport"
	ProductStageInWarehouse ProductStage = "in_warehouse"
	ProductStageInRetail    ProductStage = "in_retail"
	ProductStageSold        ProductStage = "sold"
)

// pipelineOrder is the only legal progression; transitions never skip or reverse.
var pipelineOrder = []ProductStage{
	ProductStageHarvested,
	ProductStageInTransport,
	ProductStageInWarehouse,
	ProductStageInRetail,
	ProductStageSold,
}

// String implements fmt.Stringer.
func (p ProductStage) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductStage.
func (p ProductStage) IsValid() bool {
	for _, candidate := range pipelineOrder {
		if candidate == p {
			return true
		}
	}
	return false
}

// Next returns the stage that directly follows p in the pipeline. The second
// return is false when p is terminal or unknown.
func (p ProductStage) Next() (ProductStage, bool) {
	for i, candidate := range pipelineOrder {
		if candidate == p {
			if i+1 < len(pipelineOrder) {
				return pipelineOrder[i+1], true
			}
			return "", false
		}
	}
	return "", false
}

// Reached reports whether p is at or past the target stage in pipeline order.
func (p ProductStage) Reached(target ProductStage) bool {
	pi, ti := -1, -1
	for i, candidate := range pipelineOrder {
		if candidate == p {
			pi = i
		}
		if candidate == target {
			ti = i
		}
	}
	return pi >= 0 && ti >= 0 && pi >= ti
}

// ParseProductStage converts raw input into a ProductStage.
func ParseProductStage(value string) (ProductStage, error) {
	for _, candidate := range pipelineOrder {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product stage %q", value)
}
