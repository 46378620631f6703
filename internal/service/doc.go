// Package service holds the orchestration layer of the job queue, the bulk
// query resolver and the cutover coordinator.
//
// Services depend on the ports in internal/core and never on internal/data,
// internal/adapters or internal/http. Errors carry an internal/errors category
// and are wrapped with the failing operation.
package service
