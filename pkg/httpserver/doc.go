// Package httpserver runs the service's HTTP listener with graceful
// shutdown and health probe handlers.
package httpserver
