// Command guidepost plays tutorials on a Qubes desktop and inspects tutorial
// definitions offline.
package main

func main() {
	Execute()
}
