// Package telemetry produces and retains live sensor readings for a crane.
// Snapshots are the raw material the lifecycle engine scores; retention is a
// bounded window, not an archive.
package telemetry

import (
	"encoding/json"
	"time"
)

// Snapshot is one point-in-time sensor reading, including the slow-moving
// component wear estimates that only deep diagnostics consume.
type Snapshot struct {
	Timestamp            time.Time `json:"timestamp"`
	ComponentID          string    `json:"component_id"`
	VibrationMMS         float64   `json:"vibration_mm_s"`
	TemperatureC         float64   `json:"temperature_c"`
	LoadCycles           int64     `json:"load_cycles"`
	MotorCurrentA        float64   `json:"motor_current_a"`
	BrakeHealthPct       float64   `json:"brake_health_pct"`
	MotorHours           float64   `json:"motor_hours"`
	OilPressureBar       float64   `json:"oil_pressure_bar"`
	GearboxOilTempC      float64   `json:"gearbox_oil_temp_c"`
	HydraulicPressureBar float64   `json:"hydraulic_pressure_bar"`
	VoltageImbalancePct  float64   `json:"voltage_imbalance_pct"`
	MainBearingWear      float64   `json:"main_bearing"`
	HoistMotorWear       float64   `json:"hoist_motor"`
	CableTensionWear     float64   `json:"cable_tension"`
}

// Raw renders the snapshot as the JSON payload handed to the scoring adapter.
func (s Snapshot) Raw() (json.RawMessage, error) {
	return json.Marshal(s)
}
