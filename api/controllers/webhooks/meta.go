package webhooks

import (
	"io"
	"net/http"
	"time"

	"github.com/angelmondragon/replyflow-backend/api/responses"
	"github.com/angelmondragon/replyflow-backend/internal/webhooks/meta"
	"github.com/angelmondragon/replyflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/replyflow-backend/pkg/errors"
	"github.com/angelmondragon/replyflow-backend/pkg/logger"
	"github.com/angelmondragon/replyflow-backend/pkg/metrics"
)

const (
	maxDeliveryBytes = 1 << 20
	eventReceived    = "EVENT_RECEIVED"
)

// EntrySubmitter hands one delivery entry to background processing.
type EntrySubmitter interface {
	Submit(platform enums.Platform, entry meta.Entry, receivedAt time.Time) bool
}

// MetaVerify answers the subscription handshake.
func MetaVerify(verifyToken string, m *metrics.PipelineMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		challenge, ok := meta.VerifySubscription(q.Get("hub.mode"), q.Get("hub.verify_token"), q.Get("hub.challenge"), verifyToken)
		if !ok {
			m.IncDelivery("handshake_rejected")
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "verification failed"))
			return
		}
		m.IncDelivery("handshake")
		writeText(w, http.StatusOK, challenge)
	}
}

// MetaWebhook verifies and accepts a delivery. Entries are processed after the
// response is written; the sender only learns whether the delivery was
// authentic and well formed.
func MetaWebhook(appSecret string, submitter EntrySubmitter, m *metrics.PipelineMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if submitter == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event intake unavailable"))
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDeliveryBytes))
		if err != nil {
			m.IncDelivery("unreadable")
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		if err := meta.VerifySignature(payload, r.Header.Get(meta.SignatureHeader), appSecret); err != nil {
			m.IncDelivery("invalid_signature")
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeSignature, err, "invalid signature"))
			return
		}

		delivery, err := meta.ParseDelivery(payload)
		if err != nil {
			m.IncDelivery("invalid_json")
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery body"))
			return
		}

		platform, err := enums.PlatformFromObject(delivery.Object)
		if err != nil {
			// Acknowledge so the platform stops retrying a subscription we don't handle.
			m.IncDelivery("unsupported_object")
			logg.Warn(logg.WithField(ctx, "object", delivery.Object), "webhook.unsupported_object")
			writeText(w, http.StatusOK, eventReceived)
			return
		}

		receivedAt := time.Now().UTC()
		for _, entry := range delivery.Entry {
			if !submitter.Submit(platform, entry, receivedAt) {
				logg.Warn(logg.WithAccountID(ctx, entry.ID), "webhook.entry_dropped")
			}
		}

		m.IncDelivery("accepted")
		writeText(w, http.StatusOK, eventReceived)
	}
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
