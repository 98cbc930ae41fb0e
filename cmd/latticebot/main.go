// latticebot runs a chat bot assembled from modules: built-ins compiled
// into the binary plus plugins found in .lattice/plugins.
package main

func main() {
	Execute()
}
