// Package application provides application initialization and dependency wiring
// for the serve command. It performs the initial resolution and creates the
// snapshot storage, handlers, routers and HTTP server, keeping the main
// package focused on CLI parsing and orchestration.
package application
