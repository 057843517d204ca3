// Package supervisor runs the scanner agent's single control loop.
//
// All shared state (Connection State, Authorization State and the
// diagnostic log) is only mutated from the loop's goroutine; background
// producers such as paho's network goroutines and the scan reader hand
// their work over through bounded queues that each tick drains.
package supervisor
