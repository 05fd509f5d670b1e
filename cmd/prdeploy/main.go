// Command prdeploy builds a pull request, publishes its wheel and deploys
// a demo preview, then links the preview on the pull request.
package main

import (
	"os"
)

func main() {
	os.Exit(execute(os.Args[1:], newApp(os.Stdout, os.Stderr, os.Getenv)))
}
