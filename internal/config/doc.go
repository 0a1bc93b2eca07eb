// Package config loads listview settings.
//
// Configuration is built from three layers, higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  3. Environment (LISTVIEW_) │  ← Highest priority
//	├─────────────────────────────┤
//	│  2. TOML file (--config)    │
//	├─────────────────────────────┤
//	│  1. Built-in defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Layers are read into maps by the loader package, merged, decoded into
// Config and validated. A file such as
//
//	[logging]
//	level = "debug"
//
//	[columns]
//	address_width = 8
//	unknown_segment = "?"
//
//	[[views]]
//	name = "entry"
//	types = ["function"]
//	script = "item.address >= 0x401000"
//	columns = ["address", "symbol", "refs"]
//
// adds an "entry" view next to the built-in ones. Watch reloads the file when
// it changes.
package config
