// Package config provides configuration management for multilookup.
//
// The package uses a Provider interface to abstract configuration loading, with the
// primary implementation being filesystem-based configuration via YAML files.
//
// # Configuration Structure
//
//	queue:
//	  capacity: 1024        # hostnames held by the shared queue
//	resolvers:
//	  count: 10             # resolver pool size, 1..10
//	names:
//	  max_length: 1024      # longer tokens are truncated
//	dns:
//	  mode: system          # system | direct
//	  servers:              # direct mode only, host:port
//	    - 1.1.1.1:53
//	  timeout: 5s           # per hostname
//
// # Basic Usage
//
// Load configuration using the default path (~/.multilookup/config.yaml):
//
//	cfg, err := config.New("").Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Keys absent from the file keep their defaults, so a file containing only
//
//	resolvers:
//	  count: 4
//
// changes the pool size and nothing else. A missing or empty file yields
// Default().
//
// # Validation
//
//   - queue capacity must be at least 1
//   - resolver count must be between MinResolvers and MaxResolvers
//   - max name length must be at least 1
//   - dns mode must be "system" or "direct"
//   - DNS timeout must be at least 1 second
//
// Validation failures are wrapped in ErrInvalidConfig.
//
// # Writing
//
// Save encodes a Config and writes it with filesys.AtomicWrite, which is what
// `multilookup config init` uses to produce a starting file.
package config
