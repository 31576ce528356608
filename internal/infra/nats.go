// README: NATS connection for the notification event publisher.
package infra

import "github.com/nats-io/nats.go"

func NewNATS(url string) (*nats.Conn, error) {
	return nats.Connect(url, nats.Name("atelier-api"))
}
