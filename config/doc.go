// Package config loads animectl configuration from YAML.
//
// A file has two sections, client and observe. Values left out keep their
// defaults. ${VAR} references are expanded from the environment before
// parsing and a missing variable is an error; $$ yields a literal $.
//
//	client:
//	  base_url: https://api.jikan.moe/v4
//	  cache_ttl: 5m
//	  backoff_base: 1000ms
//	  composite_strategy: parallel
//	observe:
//	  service_name: animectl
//	  logging:
//	    enabled: true
//	    level: ${LOG_LEVEL}
package config
