// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package forwarder republishes raw data source payloads on NATS so that
// other services can consume them without a connection of their own.
package forwarder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/absmach/scadabind"
	"github.com/absmach/scadabind/logger"
	"github.com/absmach/scadabind/pkg/errors"
	broker "github.com/nats-io/nats.go"
)

const (
	// Publisher is the value of the envelope publisher field.
	Publisher = "scadabind"

	// DefaultSubject is the subject prefix used when New gets an empty one.
	DefaultSubject = "scada.raw"

	// Unlimited reconnect attempts, the forwarder never gives up on NATS.
	maxReconnects = -1
)

var (
	// ErrPublish indicates a failed NATS publish.
	ErrPublish = errors.New("failed to publish payload")

	subjectReplacer = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_")
)

// Envelope wraps one raw payload on the wire.
type Envelope struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Publisher string `json:"publisher"`
	Created   int64  `json:"created"`
	Payload   any    `json:"payload"`
}

// Service publishes raw data source payloads.
type Service interface {
	// Publish wraps payload in an envelope and publishes it under the
	// subject of sourceID.
	Publish(ctx context.Context, sourceID string, payload any) error
}

// Conn is the subset of a NATS connection used for publishing.
type Conn interface {
	Publish(subject string, data []byte) error
}

var _ Service = (*Forwarder)(nil)

// Forwarder publishes each payload it receives to <subject>.<sourceID>.
type Forwarder struct {
	conn    Conn
	subject string
	idp     scadabind.IDProvider
	now     func() time.Time
}

// New returns a forwarder publishing through conn under subject, or under
// DefaultSubject when subject is empty.
func New(conn Conn, subject string, idp scadabind.IDProvider) *Forwarder {
	subject = strings.Trim(strings.TrimSpace(subject), ".")
	if subject == "" {
		subject = DefaultSubject
	}
	return &Forwarder{
		conn:    conn,
		subject: subject,
		idp:     idp,
		now:     time.Now,
	}
}

// Connect opens a NATS connection that reconnects forever.
func Connect(url string) (*broker.Conn, error) {
	return broker.Connect(url, broker.MaxReconnects(maxReconnects))
}

// Subject returns the subject payloads of sourceID are published to.
// Characters with a meaning in NATS subjects are replaced.
func (f *Forwarder) Subject(sourceID string) string {
	return fmt.Sprintf("%s.%s", f.subject, subjectReplacer.Replace(sourceID))
}

// Forward returns a data listener that publishes through svc and logs
// failures instead of returning them.
func Forward(svc Service, logger logger.Logger) func(sourceID string, payload any) {
	return func(sourceID string, payload any) {
		if err := svc.Publish(context.Background(), sourceID, payload); err != nil {
			logger.Warn(fmt.Sprintf("Failed to forward payload of data source %s: %s", sourceID, err))
		}
	}
}

func (f *Forwarder) Publish(ctx context.Context, sourceID string, payload any) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(ErrPublish, err)
	}
	id, err := f.idp.ID()
	if err != nil {
		return errors.Wrap(ErrPublish, err)
	}
	env := Envelope{
		ID:        id,
		Source:    sourceID,
		Publisher: Publisher,
		Created:   f.now().UnixNano(),
		Payload:   payload,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(ErrPublish, err)
	}
	if err := f.conn.Publish(f.Subject(sourceID), data); err != nil {
		return errors.Wrap(ErrPublish, err)
	}

	return nil
}
