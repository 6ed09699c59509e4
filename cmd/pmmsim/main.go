// Command pmmsim runs the physical frame allocator against a synthetic
// memory map. Physical memory is simulated with an anonymous mapping that
// stands in for the kernel's direct map.
package main

func main() {
	execute()
}
