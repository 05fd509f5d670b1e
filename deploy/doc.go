// Package deploy publishes an assembled demo bundle as a hosted preview.
//
// SpacesDeployer targets Hugging Face Spaces. Each pull request maps to one
// Space, so redeploying a PR overwrites the same preview instead of
// creating a new one.
package deploy
