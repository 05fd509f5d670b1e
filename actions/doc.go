// Package actions renders and lints the GitHub Actions workflow that
// runs prdeploy on pull requests.
//
//	content, err := actions.Render(actions.Options{BaseBranch: "main"})
//	findings, err := actions.Lint(actions.DefaultPath, content)
package actions
