package rabbitmq

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"portfolio/internal/models"

	"github.com/rs/zerolog/log"
	amqp "github.com/streadway/amqp"
)

// DefaultQueue receives contact form events when no queue is configured.
const DefaultQueue = "contact_queue"

// EventContactCreated is the type of the event published for a new contact message.
const EventContactCreated = "contact.created"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string

	mu sync.Mutex // amqp channels are not safe for concurrent publishing
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL   string
	Queue string
}

// ContactEvent is the message body published for a new contact message.
type ContactEvent struct {
	Type    string                `json:"type"`
	Message models.ContactMessage `json:"message"`
}

// NewClient connects to RabbitMQ, opens a channel and declares the contact queue.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declare(ch, cfg.Queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Info().Str("queue", cfg.Queue).Msg("RabbitMQ client connected")

	return &Client{
		conn:    conn,
		channel: ch,
		queue:   cfg.Queue,
	}, nil
}

func declare(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s: %w", queue, err)
	}
	return nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors while closing RabbitMQ client: %v", errs)
	}
	return nil
}

// EncodeContactEvent builds the JSON body published for msg.
func EncodeContactEvent(msg models.ContactMessage) ([]byte, error) {
	body, err := json.Marshal(ContactEvent{Type: EventContactCreated, Message: msg})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal contact event: %w", err)
	}
	return body, nil
}

// DecodeContactEvent parses a body produced by EncodeContactEvent.
func DecodeContactEvent(body []byte) (ContactEvent, error) {
	var ev ContactEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ContactEvent{}, fmt.Errorf("failed to unmarshal contact event: %w", err)
	}
	if ev.Type != EventContactCreated {
		return ContactEvent{}, fmt.Errorf("unexpected event type %q", ev.Type)
	}
	return ev, nil
}

// PublishContactMessage publishes a contact.created event as a persistent JSON message.
func (c *Client) PublishContactMessage(msg models.ContactMessage) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	body, err := EncodeContactEvent(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err = c.channel.Publish(
		"",      // default exchange
		c.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         EventContactCreated,
			MessageId:    msg.ID,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	log.Debug().Str("id", msg.ID).Str("queue", c.queue).Msg("Sent contact event")
	return nil
}

// ConsumeContactEvents delivers contact events to handler on a background goroutine.
// A handler error nacks the delivery without requeueing it.
func (c *Client) ConsumeContactEvents(handler func(ContactEvent) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		c.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Info().Str("queue", c.queue).Msg("Waiting for contact events")

	go func() {
		for d := range msgs {
			if err := handleDelivery(d.Body, handler); err != nil {
				log.Error().Err(err).Uint64("tag", d.DeliveryTag).Msg("Error processing contact event")
				if nackErr := d.Nack(false, false); nackErr != nil {
					log.Error().Err(nackErr).Uint64("tag", d.DeliveryTag).Msg("Error nacking message")
				}
				continue
			}
			if ackErr := d.Ack(false); ackErr != nil {
				log.Error().Err(ackErr).Uint64("tag", d.DeliveryTag).Msg("Error acking message")
			}
		}
		log.Info().Str("queue", c.queue).Msg("Contact event consumer stopped")
	}()

	return nil
}

func handleDelivery(body []byte, handler func(ContactEvent) error) error {
	ev, err := DecodeContactEvent(body)
	if err != nil {
		return err
	}
	return handler(ev)
}
