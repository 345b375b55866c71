// Package gateway provides the command sources the agent listens on.
// A gateway turns user input into command strings and carries spoken
// responses back to the user.
package gateway

// Messenger defines the interface for command gateways (console, Telegram).
type Messenger interface {
	// Start begins the listening loop and blocks until the gateway stops.
	Start() error
	// Send delivers a response to the user.
	Send(text string) error
	// Commands returns the channel of incoming command strings.
	Commands() <-chan string
	// Stop gracefully shuts down the gateway.
	Stop() error
}
