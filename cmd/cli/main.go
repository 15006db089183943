// Command cli is the terminal front end of the expense analyzer. It works
// directly against the configured store.
package main

func main() {
	Execute()
}
