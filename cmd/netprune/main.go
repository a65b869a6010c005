// netprune - find and remove orphaned AWS network resources.
package main

func main() {
	Execute()
}
