// Package api holds the contracts shared by hioload-pool engines, adapters
// and control surfaces: the task and pool interfaces, diagnostic snapshots
// and error types.
package api
