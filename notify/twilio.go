package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hidenkeys/studios/booking"
	"github.com/hidenkeys/studios/config"
)

const twilioBaseURL = "https://api.twilio.com"

// Twilio texts the staff phone through the Twilio Messages API.
type Twilio struct {
	cfg     config.Twilio
	baseURL string
	client  *http.Client
}

func NewTwilio(cfg config.Twilio) *Twilio {
	return &Twilio{
		cfg:     cfg,
		baseURL: twilioBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (t *Twilio) Notify(ctx context.Context, s booking.Summary) error {
	text, err := SMSText(s)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("To", t.cfg.To)
	form.Set("From", t.cfg.From)
	form.Set("Body", text)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.baseURL, url.PathEscape(t.cfg.AccountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(t.cfg.AccountSID, t.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("twilio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var terr twilioError
		if json.Unmarshal(body, &terr) == nil && terr.Message != "" {
			return fmt.Errorf("twilio: %d %s (code %d)", resp.StatusCode, terr.Message, terr.Code)
		}
		return fmt.Errorf("twilio: unexpected status %d", resp.StatusCode)
	}
	return nil
}
