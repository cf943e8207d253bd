// Command budget runs the budget HTTP API and its maintenance commands.
package main

func main() {
	Execute()
}
