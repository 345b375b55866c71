package gateway

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/arjunsk/max/internal/confirm"
)

// TelegramGateway lets a single configured chat drive the agent
// remotely. Replies from that chat answer pending confirmations; any
// other text becomes a command.
type TelegramGateway struct {
	Bot      *tgbotapi.BotAPI
	ChatID   int64
	broker   *confirm.Broker
	commands chan string
}

func NewTelegramGateway(token string, chatID int64, broker *confirm.Broker) (*TelegramGateway, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	return &TelegramGateway{
		Bot:      bot,
		ChatID:   chatID,
		broker:   broker,
		commands: make(chan string),
	}, nil
}

func (tg *TelegramGateway) Start() error {
	defer close(tg.commands)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := tg.Bot.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}
		if update.Message.Chat.ID != tg.ChatID {
			log.Printf("Ignoring message from unauthorized chat %d", update.Message.Chat.ID)
			continue
		}

		log.Printf("[%s] %s", update.Message.From.UserName, update.Message.Text)

		if tg.broker != nil && tg.broker.HasPending() {
			tg.broker.Answer(confirm.ParseAnswer(update.Message.Text))
			continue
		}

		tg.commands <- update.Message.Text
	}
	return nil
}

func (tg *TelegramGateway) Send(text string) error {
	if tg.ChatID == 0 {
		return fmt.Errorf("no chat configured")
	}
	msg := tgbotapi.NewMessage(tg.ChatID, text)
	_, err := tg.Bot.Send(msg)
	return err
}

func (tg *TelegramGateway) Commands() <-chan string {
	return tg.commands
}

func (tg *TelegramGateway) Stop() error {
	tg.Bot.StopReceivingUpdates()
	return nil
}
