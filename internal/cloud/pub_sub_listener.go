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

// Package cloud provides components for interacting with Google Cloud
// services. This file defines the Pub/Sub listener that turns GCS
// object-finalize notifications on the input bucket into submitted jobs.
// A message is acknowledged once the job has been accepted; messages the
// orchestrator rejects as invalid are acknowledged too, since redelivery
// cannot fix a bad object. Everything else is left for redelivery.
package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"github.com/videopulse/video-insights/internal/core/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Submitter accepts new summarization jobs. The orchestrator implements
// it; the indirection keeps this package from importing the workflow.
type Submitter interface {
	Submit(ctx context.Context, source model.VideoReference, displayName string) (string, error)
}

// InvalidSubmission lets the listener distinguish poison messages from
// transient failures without importing the jobs package.
type InvalidSubmission interface {
	InvalidSubmission() bool
}

// PubSubListener pulls GCS notifications from one subscription and
// submits a job per finalized video object.
type PubSubListener struct {
	client       *pubsub.Client
	subscription *pubsub.Subscription
	submitter    Submitter
}

// NewPubSubListener creates a listener bound to a subscription ID. The
// submitter may be nil at construction and attached later with
// SetSubmitter.
func NewPubSubListener(
	pubsubClient *pubsub.Client,
	subscriptionID string,
	submitter Submitter,
) (cmd *PubSubListener, err error) {
	sub := pubsubClient.Subscription(subscriptionID)

	cmd = &PubSubListener{
		client:       pubsubClient,
		subscription: sub,
		submitter:    submitter,
	}
	return cmd, nil
}

// SetSubmitter attaches the submitter once, after the orchestrator has
// been built. A submitter that is already set is never overwritten.
func (m *PubSubListener) SetSubmitter(submitter Submitter) {
	if m.submitter == nil {
		m.submitter = submitter
	}
}

// Listen starts receiving in a background goroutine. Canceling ctx stops
// the receive loop.
func (m *PubSubListener) Listen(ctx context.Context) {
	log.Printf("listening: %s", m.subscription)

	go func() {
		tracer := otel.Tracer("gcs-notification-listener")

		err := m.subscription.Receive(ctx, func(_ context.Context, msg *pubsub.Message) {
			spanCtx, span := tracer.Start(ctx, "receive-notification")
			defer span.End()
			span.SetAttributes(attribute.String("msg", string(msg.Data)))

			var notification GCSPubSubNotification
			if err := json.Unmarshal(msg.Data, &notification); err != nil {
				span.SetStatus(codes.Error, "malformed notification")
				slog.Error("failed to decode GCS notification", "error", err)
				msg.Ack() // Malformed payloads never become valid.
				return
			}

			ref := model.VideoReference{
				Kind:    model.SourceGCS,
				Locator: FormatGCSURI(notification.Bucket, notification.Name),
			}

			id, err := m.submitter.Submit(spanCtx, ref, notification.Name)
			if err != nil {
				if isInvalid(err) {
					span.SetStatus(codes.Error, "rejected notification")
					slog.Warn("rejected GCS notification", "object", notification.Name, "error", err)
					msg.Ack() // Poison message, do not redeliver.
					return
				}
				span.SetStatus(codes.Error, "failed to submit job")
				slog.Error("failed to submit job for GCS object", "object", notification.Name, "error", err)
				// No ack: redeliver after the deadline expires.
				return
			}

			span.SetStatus(codes.Ok, "job submitted")
			slog.Info("submitted job from GCS notification", "job_id", id, "object", notification.Name)
			msg.Ack()
		})

		if err != nil {
			log.Printf("error receiving data: %v", err)
		}
	}()
}

func isInvalid(err error) bool {
	var inv InvalidSubmission
	if errors.As(err, &inv) {
		return inv.InvalidSubmission()
	}
	return false
}
