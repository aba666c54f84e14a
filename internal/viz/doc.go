// Package viz provides the terminal viewer for the mass grid.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Model]: live view stepping a simulator once per frame
//   - [Canvas]: braille canvas with ordered dithering for the heatmap
//   - [Sample]: block reduction of the front buffer per display [Mode]
//   - [NewPicker]: preset selection in front of the live view
//
// # Key Bindings
//
//	Space  - Pause/Resume simulation
//	.      - Single tick while paused
//	M      - Cycle display mode (mass, momentum, force, sat)
//	T      - Cycle colour themes
//	Arrows - Move the scope window
//	+/-    - Resize the scope window
//	?      - Show help overlay
package viz
