package sms

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTwilio(t *testing.T, handler http.HandlerFunc) *TwilioClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewTwilioClient(TwilioConfig{
		AccountSID: "AC123",
		AuthToken:  "secret",
		FromNumber: "+15550000000",
		BaseURL:    server.URL,
	})
	require.NoError(t, err)
	return client
}

func TestNewTwilioClientValidation(t *testing.T) {
	_, err := NewTwilioClient(TwilioConfig{FromNumber: "+15550000000"})
	assert.Error(t, err)

	_, err = NewTwilioClient(TwilioConfig{AccountSID: "AC123", AuthToken: "secret"})
	assert.Error(t, err)
}

func TestTwilioSend(t *testing.T) {
	t.Run("posts form and returns sid", func(t *testing.T) {
		client := newTestTwilio(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)

			user, pass, ok := r.BasicAuth()
			require.True(t, ok)
			assert.Equal(t, "AC123", user)
			assert.Equal(t, "secret", pass)

			require.NoError(t, r.ParseForm())
			assert.Equal(t, "+15550000000", r.PostForm.Get("From"))
			assert.Equal(t, "+15551234567", r.PostForm.Get("To"))
			assert.Equal(t, "hello", r.PostForm.Get("Body"))

			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"sid":"SM42","status":"queued"}`)
		})

		sid, err := client.Send(context.Background(), "+15551234567", "hello")
		require.NoError(t, err)
		assert.Equal(t, "SM42", sid)
	})

	t.Run("non-2xx is an error with provider detail", func(t *testing.T) {
		client := newTestTwilio(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"code":21211,"message":"Invalid 'To' phone number"}`)
		})

		_, err := client.Send(context.Background(), "bogus", "hello")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid 'To' phone number")
	})

	t.Run("missing sid is an error", func(t *testing.T) {
		client := newTestTwilio(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"status":"queued"}`)
		})

		_, err := client.Send(context.Background(), "+15551234567", "hello")
		assert.Error(t, err)
	})
}
