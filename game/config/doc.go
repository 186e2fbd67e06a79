// Package config provides map management for the Mars mission game.
//
// The config package handles:
//   - Loading map files from a directory
//   - Map validation on load
//   - Caching of parsed maps and built boards
//   - A generated fallback map when the directory holds no maps
//
// Map Format:
//
// Maps are stored as JSON files in the maps directory. Each map defines a
// name, a description, a rectangular difficulty grid indexed [row][column],
// and an optional target location (the board centre when omitted):
//
//	{
//	  "name": "Jezero Crater",
//	  "description": "Delta deposits around the landing site",
//	  "difficulties": [[1, 2, 3], [2, 4, 2], [1, 1, 5]],
//	  "target": {"row": 1, "column": 1}
//	}
//
// Usage:
//
//	manager, err := config.NewManager("maps")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Boards for every map, in filename order
//	boards, err := manager.LoadMaps()
//
//	// List available maps
//	maps, err := manager.ListConfigs()
package config
