// Command larder manages per-owner profiles and items in a keyed record store.
package main

import "github.com/mesh-intelligence/larder/internal/cli"

func main() {
	cli.Execute()
}
