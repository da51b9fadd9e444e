package enums

import "fmt"

// ProductionStage is one step of the fixed rug production line.
type ProductionStage string

const (
	StageDesignApproved ProductionStage = "design_approved"
	StageYarnPlanning   ProductionStage = "yarn_planning"
	StageTufting        ProductionStage = "tufting"
	StageTrimming       ProductionStage = "trimming"
	StageWashing        ProductionStage = "washing"
	StageDrying         ProductionStage = "drying"
	StageFinishing      ProductionStage = "finishing"
	StageQC             ProductionStage = "qc"
	StagePacking        ProductionStage = "packing"
	StageReadyToShip    ProductionStage = "ready_to_ship"
)

// ProductionStages is the ordering table. Position is the stage index.
var ProductionStages = []ProductionStage{
	StageDesignApproved,
	StageYarnPlanning,
	StageTufting,
	StageTrimming,
	StageWashing,
	StageDrying,
	StageFinishing,
	StageQC,
	StagePacking,
	StageReadyToShip,
}

// FirstStage is where every new work order starts.
func FirstStage() ProductionStage {
	return ProductionStages[0]
}

// TerminalStage is the last stage of the line.
func TerminalStage() ProductionStage {
	return ProductionStages[len(ProductionStages)-1]
}

// String implements fmt.Stringer.
func (s ProductionStage) String() string {
	return string(s)
}

// Index returns the position of s in the line, or -1 when unknown.
func (s ProductionStage) Index() int {
	for i, candidate := range ProductionStages {
		if candidate == s {
			return i
		}
	}
	return -1
}

// IsValid reports whether the value is a known ProductionStage.
func (s ProductionStage) IsValid() bool {
	return s.Index() >= 0
}

func (s ProductionStage) IsTerminal() bool {
	return s == TerminalStage()
}

// Next returns the successor stage. ok is false at the terminal stage or for
// unknown values.
func (s ProductionStage) Next() (ProductionStage, bool) {
	idx := s.Index()
	if idx < 0 || idx >= len(ProductionStages)-1 {
		return "", false
	}
	return ProductionStages[idx+1], true
}

// Previous returns the predecessor stage. ok is false at the first stage or
// for unknown values.
func (s ProductionStage) Previous() (ProductionStage, bool) {
	idx := s.Index()
	if idx <= 0 {
		return "", false
	}
	return ProductionStages[idx-1], true
}

// ParseProductionStage converts raw input into a ProductionStage.
func ParseProductionStage(value string) (ProductionStage, error) {
	for _, candidate := range ProductionStages {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid production stage %q", value)
}

// StageStatus is the state of one stage history record.
type StageStatus string

const (
	StageStatusPending   StageStatus = "pending"
	StageStatusActive    StageStatus = "active"
	StageStatusCompleted StageStatus = "completed"
	StageStatusSkipped   StageStatus = "skipped"
)

var validStageStatuses = []StageStatus{
	StageStatusPending,
	StageStatusActive,
	StageStatusCompleted,
	StageStatusSkipped,
}

func (s StageStatus) String() string {
	return string(s)
}

func (s StageStatus) IsValid() bool {
	for _, candidate := range validStageStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseStageStatus(value string) (StageStatus, error) {
	for _, candidate := range validStageStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stage status %q", value)
}
