package gateway

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/arjunsk/max/internal/confirm"
)

// ConsoleGateway reads commands line by line from stdin. When a
// confirmation is pending the next line answers it instead of becoming
// a new command.
type ConsoleGateway struct {
	broker   *confirm.Broker
	commands chan string
	in       io.Reader
	done     chan struct{}
}

func NewConsoleGateway(broker *confirm.Broker) *ConsoleGateway {
	return &ConsoleGateway{
		broker:   broker,
		commands: make(chan string),
		in:       os.Stdin,
		done:     make(chan struct{}),
	}
}

func (cg *ConsoleGateway) Start() error {
	// Closing the channel on EOF lets the consumer loop drain and exit
	// instead of blocking forever on a dead stdin.
	defer close(cg.commands)

	scanner := bufio.NewScanner(cg.in)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		if cg.broker != nil && cg.broker.HasPending() {
			cg.broker.Answer(confirm.ParseAnswer(text))
			continue
		}

		select {
		case cg.commands <- text:
		case <-cg.done:
			return nil
		}
	}
	return scanner.Err()
}

func (cg *ConsoleGateway) Send(text string) error {
	_, err := fmt.Println(text)
	return err
}

func (cg *ConsoleGateway) Commands() <-chan string {
	return cg.commands
}

func (cg *ConsoleGateway) Stop() error {
	close(cg.done)
	return nil
}
