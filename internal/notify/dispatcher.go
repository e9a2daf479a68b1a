// Package notify renders transactional email and hands it to a transport.
package notify

import (
	"context"
	"fmt"
)

// Message is a request to send one templated email.
type Message struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data"`
}

// Mail is a rendered email ready for a transport.
type Mail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

type Transport interface {
	Deliver(ctx context.Context, m Mail) error
}

// DeliveryError wraps a transport failure. Callers log it and move on.
type DeliveryError struct {
	To       string
	Template string
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver %s to %s: %v", e.Template, e.To, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

type Dispatcher struct {
	registry  *Registry
	transport Transport
}

func NewDispatcher(registry *Registry, transport Transport) *Dispatcher {
	return &Dispatcher{registry: registry, transport: transport}
}

func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Send renders msg and delivers it. An unknown template fails before any
// transport work.
func (d *Dispatcher) Send(ctx context.Context, msg Message) error {
	html, err := d.registry.Render(msg.Template, msg.Data)
	if err != nil {
		return err
	}
	if err := d.transport.Deliver(ctx, Mail{To: msg.To, Subject: msg.Subject, HTML: html}); err != nil {
		return &DeliveryError{To: msg.To, Template: msg.Template, Err: err}
	}
	return nil
}
