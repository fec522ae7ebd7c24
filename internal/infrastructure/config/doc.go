// Package config provides configuration loading for the TV display client.
//
// Configuration is loaded from a YAML file with environment variable
// overrides (TVDISPLAY_* prefix). Defaults are chosen for an unattended
// kiosk deployment: local SQLite storage, conservative timeouts, and the
// lifecycle intervals the openeos backend expects from display devices.
//
// # Usage
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Related
//
//   - configs/config.yaml — annotated example configuration
package config
