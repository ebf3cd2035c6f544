// Package messaging provides the AMQP client used for realtime notification delivery
// and outbound email requests. Messages are published to a single topic exchange;
// consumers bind whichever routing keys they care about, and messages with no bound
// queue are dropped by the broker.
package messaging

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/streadway/amqp"

	"github.com/bazario/marketplace-api/common"
)

// EmailRequestRoutingKey is the routing key used for outbound email requests.
const EmailRequestRoutingKey = "email.requests"

// EmailRequest represents a request for the mail service to send a single message.
type EmailRequest struct {
	ToAddress string                 `json:"to"`
	Subject   string                 `json:"subject"`
	Template  string                 `json:"template"`
	Values    map[string]interface{} `json:"values"`
}

// Client manages the AMQP connection and channel used to publish messages.
type Client struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewClient connects to the AMQP broker and declares the exchange.
func NewClient(settings *common.AMQPSettings) (*Client, error) {
	wrapMsg := "unable to create the messaging client"

	// Establish the connection.
	conn, err := amqp.Dial(settings.URI)
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	// Open the channel.
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, wrapMsg)
	}

	// Declare the exchange.
	err = channel.ExchangeDeclare(
		settings.ExchangeName,
		settings.ExchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, wrapMsg)
	}

	return &Client{conn: conn, channel: channel, exchange: settings.ExchangeName}, nil
}

// Publish sends a single message to the exchange with the given routing key.
func (c *Client) Publish(routingKey string, body []byte) error {
	wrapMsg := "unable to publish the message"

	err := c.channel.Publish(
		c.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}

	return nil
}

// PublishEmailRequest sends a single email request to the mail service.
func (c *Client) PublishEmailRequest(request *EmailRequest) error {
	wrapMsg := "unable to publish the email request"

	// Marshal the request.
	body, err := json.Marshal(request)
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}

	return errors.Wrap(c.Publish(EmailRequestRoutingKey, body), wrapMsg)
}

// Close closes the AMQP channel and connection.
func (c *Client) Close() {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
