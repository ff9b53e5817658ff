// Package config provides configuration parsing for kinetic projects.
//
// The configuration is stored in kinetic.json (or kinetic.yaml) at the
// project root. This package handles loading, saving, and validating it.
//
// # Configuration File Structure
//
//	{
//	  "name": "todos",
//	  "server": {
//	    "host": "0.0.0.0",
//	    "port": 8080,
//	    "readTimeout": "60s",
//	    "heartbeatInterval": "20s",
//	    "allowedOrigins": ["https://example.com"]
//	  },
//	  "log": {
//	    "level": "debug",
//	    "format": "json"
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "todos"
//	  }
//	}
//
// The same document in YAML:
//
//	server:
//	  port: 8080
//	log:
//	  level: debug
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
