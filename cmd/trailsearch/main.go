// Command trailsearch serves natural-language hiking trail search.
package main

func main() {
	Execute()
}
