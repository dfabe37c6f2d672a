// Package services implements the driving port interfaces.
// Services contain the core import logic and orchestrate
// calls to driven ports (handlers, parsers and stores).
package services
