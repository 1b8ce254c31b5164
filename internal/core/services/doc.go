// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Each pipeline stage is its own service; the Orchestrator sequences
// them, checkpoints progress and records the fallbacks they take.
// Services are pure Go with no CGO or external dependencies.
package services
