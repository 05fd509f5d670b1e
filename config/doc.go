// Package config resolves prdeploy settings from layered sources.
//
// Precedence, highest first:
//  1. Command-line flags
//  2. Environment variables (PRDEPLOY_SPACE_ORG sets "space_org")
//  3. Local config (.prdeploy.yaml in the git root)
//  4. Global config (~/.config/prdeploy/config.yaml)
//  5. Built-in defaults
//
// Secrets (AWS credentials, HF_TOKEN, forge tokens) are never read from
// config files; they come from the environment only.
//
// # Usage
//
//	r := config.NewAppResolver(os.Getenv)
//	settings, err := config.Load(r, map[string]string{
//	    config.KeyBaseBranch: flagBase,
//	})
//
// Each resolved value tracks where it came from (see Source), which
// `prdeploy config list` prints next to the value.
package config
