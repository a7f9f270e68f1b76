// ghostpatch runs a narrative debugging game: a haunted codebase whose
// ghosts are software anti-patterns, confronted through dialogue and
// simulated patches.
package main

func main() {
	Execute()
}
