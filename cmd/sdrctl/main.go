// sdrctl is the operator CLI for NetSDR-compatible receivers: discover
// them on the LAN, tune, start and stop IQ streaming, and watch stream
// health in a terminal dashboard or over HTTP.
package main

func main() {
	Execute()
}
