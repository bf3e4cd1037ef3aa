package webhooks

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/replyflow-backend/internal/webhooks/meta"
	"github.com/angelmondragon/replyflow-backend/pkg/enums"
	"github.com/angelmondragon/replyflow-backend/pkg/logger"
)

const testSecret = "app-secret"

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

var deliveryBody = []byte(`{"object":"instagram","entry":[{"id":"17841","time":1772359200,"messaging":[{"sender":{"id":"u_1"},"recipient":{"id":"17841"},"timestamp":1772359200000,"message":{"mid":"m1","text":"hi"}}]}]}`)

func post(t *testing.T, handler http.Handler, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/meta", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set(meta.SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestMetaWebhookAcceptsSignedDelivery(t *testing.T) {
	submitter := &fakeSubmitter{accept: true}
	handler := MetaWebhook(testSecret, submitter, nil, testLogger())

	rec := post(t, handler, deliveryBody, meta.Sign(deliveryBody, testSecret))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "EVENT_RECEIVED", rec.Body.String())
	require.Len(t, submitter.entries, 1)
	assert.Equal(t, "17841", submitter.entries[0].ID)
	assert.Equal(t, enums.PlatformInstagram, submitter.platform)
}

func TestMetaWebhookRejectsBadSignatures(t *testing.T) {
	cases := map[string]string{
		"missing":   "",
		"malformed": "md5=abc",
		"wrong key": meta.Sign(deliveryBody, "other-secret"),
	}
	for name, signature := range cases {
		t.Run(name, func(t *testing.T) {
			submitter := &fakeSubmitter{accept: true}
			rec := post(t, MetaWebhook(testSecret, submitter, nil, testLogger()), deliveryBody, signature)

			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Contains(t, rec.Body.String(), "SIGNATURE_INVALID")
			assert.Empty(t, submitter.entries)
		})
	}
}

func TestMetaWebhookRejectsTamperedBody(t *testing.T) {
	submitter := &fakeSubmitter{accept: true}
	signature := meta.Sign(deliveryBody, testSecret)
	tampered := bytes.Replace(deliveryBody, []byte(`"hi"`), []byte(`"ho"`), 1)

	rec := post(t, MetaWebhook(testSecret, submitter, nil, testLogger()), tampered, signature)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, submitter.entries)
}

func TestMetaWebhookInvalidJSONAfterValidSignature(t *testing.T) {
	body := []byte(`{"object":`)
	submitter := &fakeSubmitter{accept: true}

	rec := post(t, MetaWebhook(testSecret, submitter, nil, testLogger()), body, meta.Sign(body, testSecret))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, submitter.entries)
}

func TestMetaWebhookStillAcknowledgesWhenQueueIsFull(t *testing.T) {
	submitter := &fakeSubmitter{accept: false}

	rec := post(t, MetaWebhook(testSecret, submitter, nil, testLogger()), deliveryBody, meta.Sign(deliveryBody, testSecret))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "EVENT_RECEIVED", rec.Body.String())
}

func TestMetaWebhookUnsupportedObject(t *testing.T) {
	body := []byte(`{"object":"whatsapp_business_account","entry":[{"id":"1"}]}`)
	submitter := &fakeSubmitter{accept: true}

	rec := post(t, MetaWebhook(testSecret, submitter, nil, testLogger()), body, meta.Sign(body, testSecret))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, submitter.entries)
}

func TestMetaVerify(t *testing.T) {
	handler := MetaVerify("verify-token", nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/webhooks/meta?hub.mode=subscribe&hub.verify_token=verify-token&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12345", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/webhooks/meta?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "12345")
}

type fakeSubmitter struct {
	mu       sync.Mutex
	accept   bool
	platform enums.Platform
	entries  []meta.Entry
}

func (f *fakeSubmitter) Submit(platform enums.Platform, entry meta.Entry, _ time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.accept {
		return false
	}
	f.platform = platform
	f.entries = append(f.entries, entry)
	return true
}
