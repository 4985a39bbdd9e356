// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cloud provides components for interacting with Google Cloud services.
// This file defines a reusable Pub/Sub listener that bridges subscriptions
// into the workflow engine: every received message is handed to an attached
// cor.Command as its input, and the message is only acknowledged when the
// command's whole chain finished without errors. Unacked messages redeliver
// on the subscription's retry policy, which gives the ingest path
// at-least-once semantics for free.
package cloud

import (
	"context"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/cor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PubSubListener connects one subscription to one processing command.
// Listeners outlive individual API requests, so they live with the other
// long-lived cloud components.
type PubSubListener struct {
	client       *pubsub.Client       // The Pub/Sub service client.
	subscription *pubsub.Subscription // The subscription messages are pulled from.
	command      cor.Command          // The workflow executed per message.
}

// NewPubSubListener creates a listener for the given subscription. The
// command may be nil at construction and attached later with SetCommand,
// which is how server setup wires chains after the clients exist.
func NewPubSubListener(
	pubsubClient *pubsub.Client,
	subscriptionID string,
	command cor.Command,
) (cmd *PubSubListener, err error) {
	sub := pubsubClient.Subscription(subscriptionID)

	cmd = &PubSubListener{
		client:       pubsubClient,
		subscription: sub,
		command:      command,
	}
	return cmd, nil
}

// SetCommand attaches the processing command if none is set yet. An already
// attached command is never overwritten.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// Listen starts receiving messages in a background goroutine. Canceling ctx
// stops the listener.
func (m *PubSubListener) Listen(ctx context.Context) {
	slog.Info("starting pub/sub listener", "subscription", m.subscription.String())

	go func() {
		tracer := otel.Tracer("message-listener")

		err := m.subscription.Receive(ctx, func(_ context.Context, msg *pubsub.Message) {
			spanCtx, span := tracer.Start(ctx, "receive-message")
			span.SetName("receive-message")
			span.SetAttributes(attribute.String("msg", string(msg.Data)))

			// Each message gets a fresh workflow context seeded with the
			// raw payload as the first command's input.
			chainCtx := cor.NewBaseContext()
			chainCtx.SetContext(spanCtx)
			chainCtx.Add(cor.CtxIn, string(msg.Data))

			m.command.Execute(chainCtx)

			if !chainCtx.HasErrors() {
				span.SetStatus(codes.Ok, "success")
				msg.Ack()
			} else {
				span.SetStatus(codes.Error, "failed")
				for name, e := range chainCtx.GetErrors() {
					slog.Error("error executing ingest chain", "command", name, "error", e)
				}
				// No Ack: the message redelivers after its deadline per the
				// subscription retry policy.
			}

			span.End()
		})

		if err != nil {
			slog.Error("error receiving pub/sub data", "error", err)
		}
	}()
}
