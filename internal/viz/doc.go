// Package viz renders comparison results three ways: ASCII trace charts for
// the terminal, a live bubbletea view fed by the coordinator's per-tick
// observer hook, and PNG exports for reports.
package viz
